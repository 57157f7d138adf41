package mailer

import "context"

// Template carries the fields the transactional template understands.
// Optional fields stay empty when a kind does not use them.
type Template struct {
	ToName          string `json:"to_name"`
	ToEmail         string `json:"to_email"`
	FromName        string `json:"from_name"`
	Message         string `json:"message"`
	UserType        string `json:"user_type,omitempty"`
	DonationDetails string `json:"donation_details,omitempty"`
}

// Provider delivers one template fill to the mail transport.
type Provider interface {
	Send(ctx context.Context, t Template) error
}
