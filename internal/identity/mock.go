package identity

import (
	"context"
	"errors"
	"sync"
)

// MockVerifier is a mock implementation of Verifier for testing.
type MockVerifier struct {
	// VerifyFn can be set by tests to control behavior
	VerifyFn func(ctx context.Context, idToken string) (*Identity, error)

	// Identities maps tokens to identities when VerifyFn is unset.
	Identities map[string]*Identity

	mu          sync.Mutex
	VerifyCalls []string
}

// NewMockVerifier creates a mock verifier with an empty token table.
func NewMockVerifier() *MockVerifier {
	return &MockVerifier{
		Identities: make(map[string]*Identity),
	}
}

// Verify implements Verifier.
func (m *MockVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	m.mu.Lock()
	m.VerifyCalls = append(m.VerifyCalls, idToken)
	m.mu.Unlock()

	if m.VerifyFn != nil {
		return m.VerifyFn(ctx, idToken)
	}
	if id, ok := m.Identities[idToken]; ok {
		return id, nil
	}
	return nil, errors.New("invalid ID token")
}

// Reset clears call tracking.
func (m *MockVerifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VerifyCalls = nil
}

// Ensure MockVerifier implements the Verifier interface.
var _ Verifier = (*MockVerifier)(nil)
