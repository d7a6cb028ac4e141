package conc

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGo(t *testing.T) {
	f := Go(func() (int, error) {
		return 42, nil
	})

	v, err := f.Await()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.True(t, f.Done())
}

func TestGoError(t *testing.T) {
	boom := errors.New("boom")
	f := Go(func() (struct{}, error) {
		return struct{}{}, boom
	})

	select {
	case <-f.Inner():
	case <-time.After(time.Second):
		t.Fatal("future not completed")
	}
	assert.ErrorIs(t, f.Err(), boom)
}

func TestPoolSubmit(t *testing.T) {
	pool := NewPool[struct{}](4)
	defer pool.Release()

	var counter atomic.Int32
	futures := make([]*Future[struct{}], 0, 16)
	for i := 0; i < 16; i++ {
		futures = append(futures, pool.Submit(func() (struct{}, error) {
			counter.Add(1)
			return struct{}{}, nil
		}))
	}

	require.NoError(t, AwaitAll(futures...))
	assert.Equal(t, int32(16), counter.Load())
	assert.Equal(t, 4, pool.Cap())
}

func TestPoolSubmitAfterRelease(t *testing.T) {
	pool := NewPool[struct{}](1)
	pool.Release()

	f := pool.Submit(func() (struct{}, error) {
		return struct{}{}, nil
	})
	assert.ErrorIs(t, f.Err(), ErrPoolReleased)
	assert.True(t, pool.IsReleased())
}
