package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// EmailJSProvider sends template mail through the EmailJS REST API.
type EmailJSProvider struct {
	BaseURL    string
	ServiceID  string
	TemplateID string
	PublicKey  string
	client     *http.Client
}

func NewEmailJSProvider(baseURL, serviceID, templateID, publicKey string) *EmailJSProvider {
	if baseURL == "" {
		baseURL = "https://api.emailjs.com"
	}
	return &EmailJSProvider{
		BaseURL:    baseURL,
		ServiceID:  serviceID,
		TemplateID: templateID,
		PublicKey:  publicKey,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

type emailJSReq struct {
	ServiceID      string   `json:"service_id"`
	TemplateID     string   `json:"template_id"`
	UserID         string   `json:"user_id"`
	TemplateParams Template `json:"template_params"`
}

func (p *EmailJSProvider) Send(ctx context.Context, t Template) error {
	body, _ := json.Marshal(emailJSReq{
		ServiceID:      p.ServiceID,
		TemplateID:     p.TemplateID,
		UserID:         p.PublicKey,
		TemplateParams: t,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/api/v1.0/email/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("emailjs send: %d %s", resp.StatusCode, string(respBody))
	}
	return nil
}
