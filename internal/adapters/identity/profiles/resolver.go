package profiles

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"petbook-access/internal/platform/httpclient"
	"petbook-access/internal/ports/identity"
)

var (
	ErrNotConfigured = errors.New("profiles client not configured")
	ErrNotFound      = errors.New("profile not found")
	ErrUpstream      = errors.New("profiles upstream error")
)

type Config struct {
	BaseURL string
	APIKey  string

	APIKeyHeader string
	Timeout      time.Duration
}

// Resolver implementa identity.Resolver contra el servicio de perfiles
// de PetBook. Los services lo tratan como opcional: si falla, atribuyen
// por UserID.
type Resolver struct {
	apiKey       string
	apiKeyHeader string
	http         *httpclient.Client
}

func NewResolver(cfg Config) (*Resolver, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}

	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &Resolver{
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
		http:         hc,
	}, nil
}

func (r *Resolver) IsConfigured() bool {
	return r != nil && r.http != nil && r.http.BaseURL != ""
}

func (r *Resolver) Resolve(ctx context.Context, userID string) (identity.Profile, error) {
	if !r.IsConfigured() {
		return identity.Profile{}, ErrNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return identity.Profile{}, errors.New("userID required")
	}

	var out struct {
		UserID      string `json:"user_id"`
		DisplayName string `json:"display_name"`
		Role        string `json:"role"`
	}

	headers := map[string]string{
		r.apiKeyHeader: r.apiKey,
	}

	path := "/v1/profiles/" + url.PathEscape(userID)
	err := r.http.GetJSON(ctx, path, headers, &out)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			if httpErr.StatusCode == http.StatusNotFound {
				return identity.Profile{}, ErrNotFound
			}
			return identity.Profile{}, fmt.Errorf("%w: status=%d", ErrUpstream, httpErr.StatusCode)
		}
		return identity.Profile{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	out.UserID = strings.TrimSpace(out.UserID)
	if out.UserID == "" {
		out.UserID = userID
	}

	return identity.Profile{
		UserID:      out.UserID,
		DisplayName: strings.TrimSpace(out.DisplayName),
		Role:        strings.TrimSpace(out.Role),
	}, nil
}
