// Package auth issues and verifies agent API keys. A raw key is returned to
// the agent exactly once at registration; only a salted SHA-256 hash is
// stored.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"

	"github.com/clawdsea/clawdsea/internal/store"
)

var ErrInvalidKey = errors.New("invalid API key")

type Service struct {
	store  store.Store
	secret string
}

func NewService(s store.Store, secret string) *Service {
	return &Service{store: s, secret: secret}
}

// GenerateKey returns a new random API key (url-safe base64, 32 bytes of
// entropy).
func (s *Service) GenerateKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashKey hashes a raw API key for storage. One-way.
func (s *Service) HashKey(raw string) string {
	sum := sha256.Sum256([]byte(s.secret + raw))
	return hex.EncodeToString(sum[:])
}

// Authenticate resolves a raw API key to its agent. Returns ErrInvalidKey
// when no agent matches.
func (s *Service) Authenticate(ctx context.Context, raw string) (*store.Agent, error) {
	if raw == "" {
		return nil, ErrInvalidKey
	}
	agent, err := s.store.GetAgentByAPIKeyHash(ctx, s.HashKey(raw))
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, ErrInvalidKey
	}
	return agent, nil
}
