package service

import (
	"context"
	"errors"
	"testing"

	"feedra/pkg/mailer"
)

func TestSendWelcomeStampsSenderAndDefaults(t *testing.T) {
	stub := &mailer.StubProvider{}
	svc := NewMailService(stub, "Feedra Team")

	if err := svc.SendWelcome(context.Background(), "Dana", "dana@example.com", ""); err != nil {
		t.Fatalf("send: %v", err)
	}
	if stub.SentCount() != 1 {
		t.Fatalf("sent = %d, want 1", stub.SentCount())
	}
	sent := stub.Sent[0]
	if sent.FromName != "Feedra Team" {
		t.Errorf("from_name = %q", sent.FromName)
	}
	if sent.ToName != "Dana" || sent.ToEmail != "dana@example.com" {
		t.Errorf("recipient = %q %q", sent.ToName, sent.ToEmail)
	}
	if sent.UserType != "volunteer" {
		t.Errorf("empty user type should default to volunteer, got %q", sent.UserType)
	}
}

func TestSendWelcomeRejectsBadRecipient(t *testing.T) {
	stub := &mailer.StubProvider{}
	svc := NewMailService(stub, "Feedra Team")

	cases := []struct{ name, email string }{
		{"", "dana@example.com"},
		{"Dana", ""},
		{"Dana", "not-an-email"},
		{"  ", "dana@example.com"},
	}
	for _, c := range cases {
		err := svc.SendWelcome(context.Background(), c.name, c.email, "donor")
		if !errors.Is(err, ErrInvalidRecipient) {
			t.Errorf("name=%q email=%q: err = %v, want ErrInvalidRecipient", c.name, c.email, err)
		}
	}
	if stub.SentCount() != 0 {
		t.Errorf("invalid recipients reached the transport: %d", stub.SentCount())
	}
}

func TestSendWithoutProvider(t *testing.T) {
	svc := NewMailService(nil, "Feedra Team")
	err := svc.SendDonationPosted(context.Background(), "Dana", "dana@example.com", "rice", 5, "Depot")
	if !errors.Is(err, ErrMailNotConfigured) {
		t.Fatalf("err = %v, want ErrMailNotConfigured", err)
	}
}

func TestSendWrapsTransportError(t *testing.T) {
	boom := errors.New("503 from upstream")
	svc := NewMailService(&mailer.StubProvider{Fail: boom}, "Feedra Team")
	err := svc.SendClaimNotice(context.Background(), "Dana", "dana@example.com", "Rae", "rice", 5)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped transport error", err)
	}
}

func TestBestEffort(t *testing.T) {
	if BestEffort("op", errors.New("boom")) {
		t.Error("failure must report false")
	}
	if !BestEffort("op", nil) {
		t.Error("success must report true")
	}
}
