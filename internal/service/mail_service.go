package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"feedra/pkg/mailer"
)

var (
	ErrMailNotConfigured = errors.New("mail transport not configured")
	ErrInvalidRecipient  = errors.New("invalid recipient")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MailService formats the three notification kinds and hands them to the
// mail provider. Callers treat failures as best-effort: log, swallow,
// carry on. The typed errors exist so tests can tell a bad recipient from
// a transport failure.
type MailService struct {
	provider mailer.Provider
	fromName string
}

func NewMailService(provider mailer.Provider, fromName string) *MailService {
	return &MailService{provider: provider, fromName: fromName}
}

func (s *MailService) send(ctx context.Context, t mailer.Template) error {
	if s == nil || s.provider == nil {
		return ErrMailNotConfigured
	}
	t.FromName = s.fromName
	if err := s.provider.Send(ctx, t); err != nil {
		return fmt.Errorf("mail transport: %w", err)
	}
	return nil
}

// SendWelcome mails the signup greeting. Recipient fields are validated
// here because the template renders garbage on empty names.
func (s *MailService) SendWelcome(ctx context.Context, name, email, userType string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: name=%q email=%q", ErrInvalidRecipient, name, email)
	}
	if userType == "" {
		userType = "volunteer"
	}
	return s.send(ctx, mailer.Template{
		ToName:   name,
		ToEmail:  email,
		UserType: userType,
		Message: fmt.Sprintf("Welcome to Feedra! We're thrilled to have you join our Food Saver Network. "+
			"As a %s, your contribution helps reduce food waste and nourish communities in need.", userType),
	})
}

// SendDonationPosted confirms to the donor that their donation is live.
func (s *MailService) SendDonationPosted(ctx context.Context, donorName, donorEmail, foodType string, quantityKg float64, location string) error {
	return s.send(ctx, mailer.Template{
		ToName:          donorName,
		ToEmail:         donorEmail,
		DonationDetails: fmt.Sprintf("%gkg of %s at %s", quantityKg, foodType, location),
		Message: fmt.Sprintf("Your food donation has been successfully posted! Your %gkg of %s will help feed families in need.",
			quantityKg, foodType),
	})
}

// SendClaimNotice tells the donor who claimed their donation.
func (s *MailService) SendClaimNotice(ctx context.Context, donorName, donorEmail, claimerName, foodType string, quantityKg float64) error {
	return s.send(ctx, mailer.Template{
		ToName:  donorName,
		ToEmail: donorEmail,
		Message: fmt.Sprintf("Great news! %s has claimed your donation of %gkg of %s. "+
			"They will contact you soon for pickup arrangements.", claimerName, quantityKg, foodType),
	})
}

// Test probes the transport with fixed placeholder fields. Diagnostic
// only; not part of any data flow.
func (s *MailService) Test(ctx context.Context) error {
	return s.send(ctx, mailer.Template{
		ToName:   "Test User",
		ToEmail:  "test@feedra.local",
		UserType: "volunteer",
		Message:  "This is a test email to verify the mail configuration is working properly.",
	})
}

func resetTemplate(name, email, token string) mailer.Template {
	return mailer.Template{
		ToName:  name,
		ToEmail: email,
		Message: "We received a request to reset your Feedra password. " +
			"Use this code within 30 minutes: " + token,
	}
}

// BestEffort logs and swallows a dispatcher error, reporting success as a
// boolean. This is the only place mail failures become booleans; inside
// the service they stay typed.
func BestEffort(op string, err error) bool {
	if err != nil {
		log.Printf("[mail] %s failed: %v", op, err)
		return false
	}
	return true
}
