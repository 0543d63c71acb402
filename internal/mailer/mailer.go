package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// SenderInterface defines the contract for outbound email
// This allows for easy mocking in tests
type SenderInterface interface {
	SendInvitation(ctx context.Context, inv Invitation) error
}

// Invitation holds the fields rendered into the invite email
type Invitation struct {
	ToEmail          string
	OrganizationName string
	InviterName      string
	Role             string
	AcceptURL        string
}

type emailRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Sender posts templated emails to the email provider's HTTP API
type Sender struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
}

var _ SenderInterface = (*Sender)(nil)

// NewSender reads MAILER_ENDPOINT, MAILER_API_KEY and MAILER_FROM from env.
func NewSender() *Sender {
	endpoint := os.Getenv("MAILER_ENDPOINT")
	if endpoint == "" {
		endpoint = "https://api.resend.com/emails"
	}
	from := os.Getenv("MAILER_FROM")
	if from == "" {
		from = "NestSpace <no-reply@nestspace.app>"
	}
	return &Sender{
		endpoint: endpoint,
		apiKey:   os.Getenv("MAILER_API_KEY"),
		from:     from,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SendInvitation renders and sends the organization invite email
func (s *Sender) SendInvitation(ctx context.Context, inv Invitation) error {
	subject := fmt.Sprintf("You've been invited to join %s on NestSpace", inv.OrganizationName)
	html := fmt.Sprintf(
		`<p>Hi,</p>
<p><strong>%s</strong> has invited you to join <strong>%s</strong> as a %s.</p>
<p><a href="%s">Accept the invitation</a></p>
<p>If you weren't expecting this, you can ignore this email.</p>`,
		inv.InviterName, inv.OrganizationName, inv.Role, inv.AcceptURL,
	)

	payload := emailRequest{
		From:    s.from,
		To:      inv.ToEmail,
		Subject: subject,
		HTML:    html,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send invitation email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}

	return nil
}
