package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"sync"
	"time"
)

// JWKS is the key-set document served by the identity provider.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK is one key in the set. Only RSA keys are used; N and E are the
// base64url modulus and exponent.
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKSCache holds the provider's RSA public keys by kid. An unknown kid
// triggers an on-demand refresh, which is how key rotation is picked up
// without restarting dispatch nodes.
type JWKSCache struct {
	url          string
	refreshEvery time.Duration
	client       *http.Client
	logger       *slog.Logger

	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey
}

func NewJWKSCache(url string, refreshEvery time.Duration) *JWKSCache {
	return &JWKSCache{
		url:          url,
		refreshEvery: refreshEvery,
		keys:         make(map[string]*rsa.PublicKey),
		client:       &http.Client{Timeout: 10 * time.Second},
		logger:       slog.Default().With("component", "jwks-cache"),
	}
}

// GetKey returns the public key for kid, refreshing once when it is not
// cached. A kid still missing after the refresh is ErrKeyNotFound.
func (c *JWKSCache) GetKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key := c.lookup(kid); key != nil {
		return key, nil
	}

	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}

	if key := c.lookup(kid); key != nil {
		return key, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, kid)
}

func (c *JWKSCache) lookup(kid string) *rsa.PublicKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keys[kid]
}

// Refresh replaces the cached keys with the endpoint's current set. On
// fetch failure the old keys stay in place, so token validation keeps
// working through a provider blip.
func (c *JWKSCache) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("building JWKS request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: endpoint returned %d", ErrJWKSFetchFailed, resp.StatusCode)
	}

	var set JWKS
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("%w: %v", ErrJWKSDecodeFailed, err)
	}

	fresh := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, jwk := range set.Keys {
		if jwk.Kty != "RSA" {
			continue
		}
		key, err := jwk.publicKey()
		if err != nil {
			c.logger.Warn("skipping unparseable JWK", "kid", jwk.Kid, "error", err)
			continue
		}
		fresh[jwk.Kid] = key
	}

	c.mu.Lock()
	c.keys = fresh
	c.mu.Unlock()
	return nil
}

// StartRefreshLoop refreshes on the configured interval until ctx ends.
func (c *JWKSCache) StartRefreshLoop(ctx context.Context) {
	ticker := time.NewTicker(c.refreshEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.logger.Error("JWKS refresh failed", "error", err)
			}
		}
	}
}

// KeyCount reports the number of cached keys.
func (c *JWKSCache) KeyCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keys)
}

func (j JWK) publicKey() (*rsa.PublicKey, error) {
	if j.N == "" || j.E == "" {
		return nil, fmt.Errorf("missing modulus or exponent")
	}

	nBytes, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, fmt.Errorf("decoding modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, fmt.Errorf("decoding exponent: %w", err)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}
