package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/nestspace/marketplace-service/internal/mailer"
)

// MockMailer captures invitation emails instead of sending them
type MockMailer struct {
	mu     sync.Mutex
	sent   []mailer.Invitation
	FailWith error
}

// NewMockMailer creates a new mock mailer
func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

// SendInvitation records the invitation or returns the configured failure
func (m *MockMailer) SendInvitation(ctx context.Context, inv mailer.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}
	m.sent = append(m.sent, inv)
	return nil
}

// Sent returns a copy of the captured invitations
func (m *MockMailer) Sent() []mailer.Invitation {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]mailer.Invitation, len(m.sent))
	copy(out, m.sent)
	return out
}

// AssertSentTo asserts that an invitation was sent to the email
func (m *MockMailer) AssertSentTo(t *testing.T, email string) {
	t.Helper()

	for _, inv := range m.Sent() {
		if inv.ToEmail == email {
			return
		}
	}
	t.Errorf("Expected an invitation sent to %s, found none", email)
}
