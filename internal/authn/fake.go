package authn

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinsync/clinsync/pkg/security"
)

type fakeAccount struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	Disabled     bool
}

// FakeProvider is an in-memory Provider for tests and local development.
// Credentials are stored hashed, never in plaintext.
type FakeProvider struct {
	mu       sync.Mutex
	accounts map[string]*fakeAccount // keyed by email
	hasher   security.PasswordHasher

	// FailCreate, when set, is returned by the next CreateAccount call and
	// then cleared. Lets tests inject provider outages.
	FailCreate error
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		accounts: make(map[string]*fakeAccount),
		hasher:   security.NewBcryptHasher(bcrypt.MinCost),
	}
}

func (p *FakeProvider) CreateAccount(ctx context.Context, email, password, displayName string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailCreate != nil {
		err := p.FailCreate
		p.FailCreate = nil
		return "", err
	}
	if _, ok := p.accounts[email]; ok {
		return "", ErrAlreadyExists
	}

	hash, err := p.hasher.Hash(password)
	if err != nil {
		return "", err
	}
	account := &fakeAccount{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
	}
	p.accounts[email] = account
	return account.ID, nil
}

func (p *FakeProvider) UpdateAccount(ctx context.Context, externalID string, patch AccountPatch) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for email, account := range p.accounts {
		if account.ID != externalID {
			continue
		}
		if patch.Email != nil {
			delete(p.accounts, email)
			account.Email = *patch.Email
			p.accounts[account.Email] = account
		}
		if patch.DisplayName != nil {
			account.DisplayName = *patch.DisplayName
		}
		if patch.Password != nil {
			hash, err := p.hasher.Hash(*patch.Password)
			if err != nil {
				return err
			}
			account.PasswordHash = hash
		}
		if patch.Disabled != nil {
			account.Disabled = *patch.Disabled
		}
		return nil
	}
	return ErrAccountNotFound
}

func (p *FakeProvider) DeleteAccount(ctx context.Context, externalID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for email, account := range p.accounts {
		if account.ID == externalID {
			delete(p.accounts, email)
			return nil
		}
	}
	return ErrAccountNotFound
}

func (p *FakeProvider) VerifyCredential(ctx context.Context, email, password string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	account, ok := p.accounts[email]
	if !ok || account.Disabled {
		return "", ErrInvalidCredential
	}
	if err := p.hasher.Compare(account.PasswordHash, password); err != nil {
		return "", ErrInvalidCredential
	}
	return account.ID, nil
}

func (p *FakeProvider) LookupAccount(ctx context.Context, email string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	account, ok := p.accounts[email]
	if !ok {
		return "", ErrAccountNotFound
	}
	return account.ID, nil
}

// AccountCount reports how many accounts exist. Test helper.
func (p *FakeProvider) AccountCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.accounts)
}
