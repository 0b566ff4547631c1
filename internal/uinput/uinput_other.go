//go:build !linux

package uinput

import "github.com/irkeyd/irkeyd/internal/remotes"

// Device is unavailable off Linux; New always fails.
type Device struct{}

// New returns ErrUnsupported on non-Linux platforms.
func New(string) (*Device, error) {
	return nil, ErrUnsupported
}

// Factory returns a factory whose endpoints always fail to register.
// Deployments off Linux should use in-memory endpoints instead.
func Factory(string) remotes.EndpointFactory {
	return func(string) (remotes.Endpoint, error) {
		return nil, ErrUnsupported
	}
}
