package authn

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Config for the HTTP provider client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type httpProvider struct {
	client *resty.Client
}

// NewHTTPProvider talks to the auth service's admin API.
func NewHTTPProvider(cfg Config) Provider {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &httpProvider{client: client}
}

type accountResponse struct {
	ID string `json:"id"`
}

func (p *httpProvider) CreateAccount(ctx context.Context, email, password, displayName string) (string, error) {
	var account accountResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"email":        email,
			"password":     password,
			"display_name": displayName,
		}).
		SetResult(&account).
		Post("/v1/accounts")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated:
		return account.ID, nil
	case http.StatusConflict:
		return "", ErrAlreadyExists
	default:
		return "", statusError("create account", resp)
	}
}

func (p *httpProvider) UpdateAccount(ctx context.Context, externalID string, patch AccountPatch) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(patch).
		Patch("/v1/accounts/" + externalID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrAccountNotFound
	default:
		return statusError("update account", resp)
	}
}

func (p *httpProvider) DeleteAccount(ctx context.Context, externalID string) error {
	resp, err := p.client.R().
		SetContext(ctx).
		Delete("/v1/accounts/" + externalID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrAccountNotFound
	default:
		return statusError("delete account", resp)
	}
}

func (p *httpProvider) VerifyCredential(ctx context.Context, email, password string) (string, error) {
	var account accountResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&account).
		Post("/v1/credentials/verify")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return account.ID, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", ErrInvalidCredential
	default:
		return "", statusError("verify credential", resp)
	}
}

func (p *httpProvider) LookupAccount(ctx context.Context, email string) (string, error) {
	var account accountResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("email", email).
		SetResult(&account).
		Get("/v1/accounts")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return account.ID, nil
	case http.StatusNotFound:
		return "", ErrAccountNotFound
	default:
		return "", statusError("lookup account", resp)
	}
}

func statusError(op string, resp *resty.Response) error {
	return fmt.Errorf("%w: %s returned %d", ErrUnavailable, op, resp.StatusCode())
}
