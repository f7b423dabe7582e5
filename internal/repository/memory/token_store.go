package memory

import (
	"context"
	"time"

	"campaign-session/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// TokenStore is the process-local token artifact store.
type TokenStore struct {
	cache *cache.Cache
	key   string
}

func NewTokenStore(key string) *TokenStore {
	return &TokenStore{
		cache: cache.New(cache.NoExpiration, 10*time.Minute),
		key:   key,
	}
}

var _ contract.TokenStore = (*TokenStore)(nil)

func (s *TokenStore) Save(_ context.Context, token string) error {
	s.cache.Set(s.key, token, cache.NoExpiration)
	return nil
}

func (s *TokenStore) Get(_ context.Context) (string, bool, error) {
	if x, found := s.cache.Get(s.key); found {
		return x.(string), true, nil
	}
	return "", false, nil
}

func (s *TokenStore) Delete(_ context.Context) error {
	s.cache.Delete(s.key)
	return nil
}
