package email

import (
	"errors"
	"sync"
)

var errDeliveryFailed = errors.New("delivery failed")

// MockSender records sent mail for tests.
type MockSender struct {
	mu       sync.Mutex
	sent     []SentMail
	FailNext bool
}

type SentMail struct {
	To      string
	Subject string
	Body    string
}

func NewMockSender() *MockSender {
	return &MockSender{}
}

func (m *MockSender) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailNext {
		m.FailNext = false
		return errDeliveryFailed
	}

	m.sent = append(m.sent, SentMail{To: to, Subject: subject, Body: body})
	return nil
}

// Sent returns a copy of everything delivered so far.
func (m *MockSender) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]SentMail, len(m.sent))
	copy(out, m.sent)
	return out
}

// Last returns the most recently delivered mail, or nil.
func (m *MockSender) Last() *SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sent) == 0 {
		return nil
	}
	last := m.sent[len(m.sent)-1]
	return &last
}
