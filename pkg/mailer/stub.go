package mailer

import (
	"context"
	"log"
	"sync"
)

// StubProvider records sends instead of delivering them; used in
// development and tests.
type StubProvider struct {
	mu   sync.Mutex
	Sent []Template
	Fail error // when set, Send returns it
}

func (s *StubProvider) Send(_ context.Context, t Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	s.Sent = append(s.Sent, t)
	log.Printf("[mail] stub send to=%s", t.ToEmail)
	return nil
}

// SentCount returns how many templates were accepted.
func (s *StubProvider) SentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Sent)
}
