package session

import (
	"context"
)

// Sealer encrypts values before they reach a backend
type Sealer interface {
	Seal(plain string) (string, error)
	Open(sealed string) (string, error)
}

// SealedBackend encrypts every value written to the wrapped backend. A value
// that no longer opens (rotated secret, tampering) reads as absent.
type SealedBackend struct {
	Backend
	sealer Sealer
}

func NewSealedBackend(inner Backend, sealer Sealer) *SealedBackend {
	return &SealedBackend{Backend: inner, sealer: sealer}
}

func (s *SealedBackend) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	sealed, ok, err := s.Backend.Get(ctx, sessionID, key)
	if err != nil || !ok {
		return "", ok, err
	}
	plain, err := s.sealer.Open(sealed)
	if err != nil {
		return "", false, nil
	}
	return plain, true, nil
}

func (s *SealedBackend) Set(ctx context.Context, sessionID, key, value string) error {
	sealed, err := s.sealer.Seal(value)
	if err != nil {
		return err
	}
	return s.Backend.Set(ctx, sessionID, key, sealed)
}

func (s *SealedBackend) SetIfAbsent(ctx context.Context, sessionID, key, value string) (bool, error) {
	sealed, err := s.sealer.Seal(value)
	if err != nil {
		return false, err
	}
	return s.Backend.SetIfAbsent(ctx, sessionID, key, sealed)
}
