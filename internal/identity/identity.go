// internal/identity/identity.go

// Package identity abstracts the external identity provider at its
// interface boundary: the core only ever asks "who is signed in, if
// anyone". StaticProvider stands in for a real provider in this
// single-user deployment.
package identity

import (
	"context"
	"sync"
)

// Provider reports the currently signed-in user. The second return is
// false when no session is active, in which case every ledger operation
// is refused.
type Provider interface {
	CurrentUserID(ctx context.Context) (string, bool)
}

// StaticProvider is bound to one configured user id and toggles between
// signed-in and signed-out.
type StaticProvider struct {
	mu       sync.Mutex
	userID   string
	signedIn bool
}

var _ Provider = (*StaticProvider)(nil)

// NewStaticProvider creates a provider for the configured user, starting
// signed out.
func NewStaticProvider(userID string) *StaticProvider {
	return &StaticProvider{userID: userID}
}

// CurrentUserID returns the configured user while a session is active.
func (p *StaticProvider) CurrentUserID(ctx context.Context) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.signedIn {
		return "", false
	}
	return p.userID, true
}

// SignIn activates the session.
func (p *StaticProvider) SignIn() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signedIn = true
}

// SignOut clears the session.
func (p *StaticProvider) SignOut() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signedIn = false
}
