package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// IdentityGate проверяет bearer токен у внешнего провайдера и применяет
// доменный allowlist. Никаких побочных эффектов: сессиями занимается провайдер.
type IdentityGate struct {
	ProviderURL    string
	ProviderKey    string
	AllowedDomains []string
	Client         *http.Client
}

func NewIdentityGate(providerURL, providerKey string, allowedDomains []string) *IdentityGate {
	return &IdentityGate{
		ProviderURL:    providerURL,
		ProviderKey:    providerKey,
		AllowedDomains: allowedDomains,
		Client:         &http.Client{Timeout: 5 * time.Second},
	}
}

type providerUserResponse struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// Resolve обменивает токен на подтвержденный email.
// Любая ошибка провайдера трактуется как неаутентифицированный запрос.
func (g *IdentityGate) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.ProviderURL+"/auth/v1/user", nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if g.ProviderKey != "" {
		req.Header.Set("apikey", g.ProviderKey)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: identity provider: %v", ErrUnauthenticated, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: identity provider status %d", ErrUnauthenticated, resp.StatusCode)
	}

	var user providerUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", fmt.Errorf("%w: decode provider response: %v", ErrUnauthenticated, err)
	}
	if user.Email == "" || !user.EmailVerified {
		return "", ErrUnauthenticated
	}

	email := strings.ToLower(strings.TrimSpace(user.Email))
	if !g.isAllowedDomain(email) {
		return "", fmt.Errorf("%w: email domain not allowed", ErrForbidden)
	}
	return email, nil
}

func (g *IdentityGate) isAllowedDomain(email string) bool {
	for _, domain := range g.AllowedDomains {
		d := strings.ToLower(strings.TrimSpace(domain))
		if d == "" {
			continue
		}
		// yourname@sas.upenn.edu проходит по суффиксу upenn.edu
		if strings.HasSuffix(email, "@"+d) || strings.HasSuffix(email, "."+d) {
			return true
		}
	}
	return false
}
