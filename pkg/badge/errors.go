// pkg/badge/errors.go
package badge

import "errors"

var (
	ErrInvalidConfig    = errors.New("badge: invalid config")
	ErrUnauthorized     = errors.New("badge: unauthorized")
	ErrUnexpectedStatus = errors.New("badge: unexpected status")
)
