package service

import (
	"context"
	"sync"
	"time"

	"payment-broker/internal/core/domain"
	"payment-broker/internal/core/ports"
	"payment-broker/pkg/apperror"

	"github.com/rs/zerolog"
)

// DefaultConfigTTL is how long a decrypted configuration stays cached.
const DefaultConfigTTL = 10 * time.Minute

// ConfigService resolves payment method ids to decrypted configurations and
// caches them for a fixed TTL. Entries are not invalidated on change.
type ConfigService struct {
	store ports.ConfigStore
	codec ports.Codec
	ttl   time.Duration
	log   zerolog.Logger

	mu      sync.Mutex
	entries map[string]*cacheEntry
	gen     uint64
}

type cacheEntry struct {
	cfg   *domain.ProviderConfig
	timer *time.Timer
	gen   uint64
}

// NewConfigService creates a cached configuration resolver. ttl <= 0 selects
// DefaultConfigTTL.
func NewConfigService(store ports.ConfigStore, codec ports.Codec, ttl time.Duration, log zerolog.Logger) *ConfigService {
	if ttl <= 0 {
		ttl = DefaultConfigTTL
	}
	return &ConfigService{
		store:   store,
		codec:   codec,
		ttl:     ttl,
		log:     log,
		entries: make(map[string]*cacheEntry),
	}
}

// GetConfig returns the cached configuration for id, or loads, decrypts and
// caches it. Concurrent misses may each read the store; the results are
// equivalent and the last insert wins.
//
// The returned value and its maps are shared with every caller until the
// entry expires. Callers must treat them as read-only.
func (s *ConfigService) GetConfig(ctx context.Context, id string) (*domain.ProviderConfig, error) {
	if cfg, ok := s.lookup(id); ok {
		return cfg, nil
	}

	s.log.Info().Str("config_id", id).Msg("fetching payment config")

	raw, err := s.store.GetConfig(ctx, id)
	if err != nil {
		return nil, apperror.ErrStoreError(err)
	}
	if raw == nil {
		return nil, apperror.ErrNotFound("Payment configuration for " + id)
	}

	cfg := *raw
	cfg.Configs = s.decryptMap(raw.Configs)
	cfg.Credentials = s.decryptMap(raw.Credentials)

	s.log.Debug().
		Str("config_id", id).
		Strs("credential_keys", keys(cfg.Credentials)).
		Msg("payment config decrypted")

	s.put(id, &cfg)
	return &cfg, nil
}

// Len reports the number of cached entries.
func (s *ConfigService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stop cancels every pending eviction timer and empties the cache.
func (s *ConfigService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, id)
	}
}

func (s *ConfigService) lookup(id string) (*domain.ProviderConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return e.cfg, true
}

func (s *ConfigService) put(id string, cfg *domain.ProviderConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[id]; ok {
		old.timer.Stop()
	}

	s.gen++
	gen := s.gen
	e := &cacheEntry{cfg: cfg, gen: gen}
	e.timer = time.AfterFunc(s.ttl, func() { s.evict(id, gen) })
	s.entries[id] = e
}

// evict removes id only if it still holds the entry the timer was armed for.
func (s *ConfigService) evict(id string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok && e.gen == gen {
		delete(s.entries, id)
		s.log.Debug().Str("config_id", id).Msg("payment config evicted")
	}
}

func (s *ConfigService) decryptMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = s.decryptDeep(v)
	}
	return out
}

// decryptDeep decrypts every string leaf. Values that are not ciphertext are
// returned unchanged.
func (s *ConfigService) decryptDeep(v any) any {
	switch t := v.(type) {
	case string:
		return s.tryDecrypt(t)
	case map[string]any:
		return s.decryptMap(t)
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, sv := range t {
			out[k] = s.tryDecrypt(sv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = s.decryptDeep(item)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, sv := range t {
			out[i] = s.tryDecrypt(sv)
		}
		return out
	default:
		return v
	}
}

func (s *ConfigService) tryDecrypt(value string) string {
	plain, err := s.codec.Decrypt(value)
	if err != nil {
		s.log.Debug().Str("value_prefix", prefix(value, 8)).Msg("value is not ciphertext, keeping as is")
		return value
	}
	return plain
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
