// Package authn wraps the external auth system the platform delegates
// account management to. The returned account id doubles as the identity
// document's key.
package authn

import (
	"context"
	"errors"
)

// Provider failure kinds. Everything else is wrapped as an unavailable
// provider error.
var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrAlreadyExists     = errors.New("account already exists")
	ErrUnavailable       = errors.New("auth system unavailable")
	ErrAccountNotFound   = errors.New("account not found")
)

// AccountPatch is a partial account update. Nil fields are left untouched.
type AccountPatch struct {
	Email       *string `json:"email,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	Password    *string `json:"password,omitempty"`
	Disabled    *bool   `json:"disabled,omitempty"`
}

// Provider is the external auth system contract.
type Provider interface {
	// CreateAccount registers a new account and returns its stable id.
	CreateAccount(ctx context.Context, email, password, displayName string) (string, error)
	UpdateAccount(ctx context.Context, externalID string, patch AccountPatch) error
	DeleteAccount(ctx context.Context, externalID string) error
	// VerifyCredential checks email/password and returns the account id.
	VerifyCredential(ctx context.Context, email, password string) (string, error)
	// LookupAccount resolves an existing account id by email. Used to
	// recover from ErrAlreadyExists on create.
	LookupAccount(ctx context.Context, email string) (string, error)
}
