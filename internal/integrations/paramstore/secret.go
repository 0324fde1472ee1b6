package paramstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// secretPayload is the expected JSON shape stored in SSM for a channel secret.
type secretPayload struct {
	Secret string `json:"secret"`
}

// SecretResolver fetches a JSON secret parameter on first use and caches it
// for the lifetime of the process. A failed fetch is retried on the next call.
type SecretResolver struct {
	getter Getter
	name   string

	mu     sync.Mutex
	secret string
}

// NewSecretResolver reads the secret stored at <prefix>/channel-secret.
func NewSecretResolver(g Getter, paramPrefix string) (*SecretResolver, error) {
	if g == nil {
		return nil, errors.New("paramstore: getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("paramstore: parameter prefix must not be empty")
	}
	return &SecretResolver{getter: g, name: paramPrefix + "/channel-secret"}, nil
}

// Secret returns the cached secret, fetching it if needed.
func (r *SecretResolver) Secret(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.secret != "" {
		return r.secret, nil
	}
	s, err := fetchSecret(ctx, r.getter, r.name)
	if err != nil {
		return "", err
	}
	r.secret = s
	return s, nil
}

func fetchSecret(ctx context.Context, getter Getter, name string) (string, error) {
	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("paramstore: fetch secret: %w", err)
	}
	var p secretPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return "", fmt.Errorf("paramstore: unmarshal secret value as JSON: %w", err)
	}
	secret := strings.TrimSpace(p.Secret)
	if secret == "" {
		return "", errors.New("paramstore: secret is empty")
	}
	return secret, nil
}
