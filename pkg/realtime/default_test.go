package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultManager(t *testing.T) {
	t.Cleanup(Shutdown)

	m1 := Default()
	require.NotNil(t, m1)
	assert.Same(t, m1, Default())

	ff := &fakeFactory{}
	m2, err := InitDefault(nil, WithTransportFactory(ff.build))
	require.NoError(t, err)
	assert.Same(t, m2, Default())

	_, err = Default().Connect("token")
	require.NoError(t, err)
	assert.Equal(t, 1, ff.count())

	Shutdown()
	assert.Equal(t, 1, ff.last().closes)

	m3 := Default()
	assert.NotSame(t, m2, m3)
	assert.Nil(t, m3.Transport())
}
