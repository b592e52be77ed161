package services

import (
	"context"
	"sync"

	"github.com/kendall-kelly/maintenance-orders-api/models"
)

// MockNotifier is a mock implementation of Notifier for testing
type MockNotifier struct {
	mu   sync.Mutex
	sent []EmailMessage
	err  error
}

// NewMockNotifier creates a notifier that records messages instead of sending them
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// FailWith makes every following NotifySigned call return err
func (m *MockNotifier) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// NotifySigned records the message, or returns the configured failure
func (m *MockNotifier) NotifySigned(ctx context.Context, order *models.Order, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, SignedOrderEmail(order, email))
	return nil
}

// Sent returns the recorded messages (for testing assertions)
func (m *MockNotifier) Sent() []EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Return a copy to prevent race conditions
	return append([]EmailMessage(nil), m.sent...)
}
