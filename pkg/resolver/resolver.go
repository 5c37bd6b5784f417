// Package resolver turns arbitrary model identifiers into degradation
// profiles. Curated models resolve instantly; repo-style identifiers
// ("org/model") are resolved from the model's published config with a
// durable cache and per-key deduplication of concurrent fetches; everything
// else degrades to the conservative fallback profile. Resolve never fails.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/ctxvitals/ctxvitals/pkg/logger"
	"github.com/ctxvitals/ctxvitals/pkg/profile"
)

const (
	// DefaultEndpoint serves raw model config files by repo identifier.
	DefaultEndpoint = "https://huggingface.co"

	// fetchTimeout bounds a single remote resolution. A timeout counts
	// as a resolution failure and is not retried.
	fetchTimeout = 5 * time.Second
)

// repoIDPattern matches two-segment "namespace/name" identifiers. Anything
// else is not worth a network round trip.
var repoIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*/[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Cache is the durable profile store. A nil Cache disables caching; errors
// from either method degrade to uncached operation and are never surfaced
// to Resolve callers.
type Cache interface {
	GetProfile(ctx context.Context, key string) (profile.Profile, bool, error)
	PutProfile(ctx context.Context, key string, p profile.Profile) error
}

// pendingFetch is the shared handle for one in-flight remote resolution.
// done is closed exactly once, after prof is written.
type pendingFetch struct {
	done chan struct{}
	prof profile.Profile
}

// Resolver resolves model identifiers to profiles. It is safe for
// concurrent use; the pending map guarantees at most one outstanding remote
// fetch per key at any time.
type Resolver struct {
	endpoint string
	client   *http.Client
	cache    Cache

	mu      sync.Mutex
	pending map[string]*pendingFetch
}

// New creates a resolver. cache may be nil (ephemeral mode). endpoint ""
// means the default Hugging Face host; tests point it at a local server.
func New(cache Cache, endpoint string) *Resolver {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Resolver{
		endpoint: endpoint,
		client:   &http.Client{Timeout: fetchTimeout},
		cache:    cache,
		pending:  make(map[string]*pendingFetch),
	}
}

// Resolve returns the degradation profile for modelID. It only ever
// degrades: any failure along the way yields the conservative fallback
// profile, never an error.
func (r *Resolver) Resolve(ctx context.Context, modelID string) profile.Profile {
	if p, ok := profile.Lookup(modelID); ok {
		return p
	}

	if !repoIDPattern.MatchString(modelID) {
		return profile.Fallback()
	}

	if r.cache != nil {
		p, ok, err := r.cache.GetProfile(ctx, modelID)
		if err != nil {
			logger.WarnCF("resolver", "Profile cache read failed",
				map[string]interface{}{"model": modelID, "error": err.Error()})
		} else if ok {
			return p
		}
	}

	// Join an in-flight fetch for the same key, or claim the slot.
	r.mu.Lock()
	if pf, ok := r.pending[modelID]; ok {
		r.mu.Unlock()
		<-pf.done
		return pf.prof
	}
	pf := &pendingFetch{done: make(chan struct{})}
	r.pending[modelID] = pf
	r.mu.Unlock()

	pf.prof = r.fetchAndCache(ctx, modelID)

	// Clear the slot before waking waiters so later calls re-attempt
	// resolution instead of observing a settled marker.
	r.mu.Lock()
	delete(r.pending, modelID)
	r.mu.Unlock()
	close(pf.done)

	return pf.prof
}

// remoteConfig carries the context-length fields recognized in a model's
// published config, in priority order.
type remoteConfig struct {
	MaxPositionEmbeddings json.Number `json:"max_position_embeddings"`
	NPositions            json.Number `json:"n_positions"`
	MaxSeqLen             json.Number `json:"max_seq_len"`
}

func (c remoteConfig) contextLength() (int, bool) {
	for _, field := range []json.Number{c.MaxPositionEmbeddings, c.NPositions, c.MaxSeqLen} {
		if field == "" {
			continue
		}
		v, err := field.Float64()
		if err != nil {
			continue
		}
		if v > 0 {
			return int(v), true
		}
	}
	return 0, false
}

// fetchAndCache performs the bounded remote fetch and, on success, derives a
// heuristic profile and writes it through the cache. Every failure path
// returns the fallback profile without caching anything.
func (r *Resolver) fetchAndCache(ctx context.Context, modelID string) profile.Profile {
	p, err := r.fetchRemote(ctx, modelID)
	if err != nil {
		logger.WarnCF("resolver", "Remote profile resolution failed, using fallback",
			map[string]interface{}{"model": modelID, "error": err.Error()})
		return profile.Fallback()
	}

	if r.cache != nil {
		if err := r.cache.PutProfile(ctx, modelID, p); err != nil {
			logger.WarnCF("resolver", "Profile cache write failed",
				map[string]interface{}{"model": modelID, "error": err.Error()})
		}
	}

	logger.InfoCF("resolver", "Resolved model profile from remote config",
		map[string]interface{}{"model": modelID, "max_tokens": p.MaxTokens})
	return p
}

func (r *Resolver) fetchRemote(ctx context.Context, modelID string) (profile.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s/resolve/main/config.json", r.endpoint, modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("create config request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("fetch model config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return profile.Profile{}, fmt.Errorf("fetch model config: status %d", resp.StatusCode)
	}

	var cfg remoteConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return profile.Profile{}, fmt.Errorf("decode model config: %w", err)
	}

	maxTokens, ok := cfg.contextLength()
	if !ok {
		return profile.Profile{}, fmt.Errorf("model config has no usable context length field")
	}

	return profile.Heuristic(modelID, maxTokens), nil
}
