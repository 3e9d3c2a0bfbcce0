// Package notify delivers out-of-band messages: transactional email and push intents.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/Loquest/Mentl2/internal"
	"github.com/go-resty/resty/v2"
)

const DefaultSendGridURL = "https://api.sendgrid.com"

type Email struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type EmailSender interface {
	Send(ctx context.Context, msg Email) error
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

// SendGridClient posts to the v3 mail send endpoint.
type SendGridClient struct {
	http *resty.Client
	from address
}

func NewSendGridClient(baseURL, apiKey, fromEmail, fromName string) *SendGridClient {
	if baseURL == "" {
		baseURL = DefaultSendGridURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &SendGridClient{http: client, from: address{Email: fromEmail, Name: fromName}}
}

func (c *SendGridClient) Send(ctx context.Context, msg Email) error {
	if msg.To == "" {
		return fmt.Errorf("notify: email has no recipient")
	}
	body := mailSendRequest{
		Personalizations: []personalization{{To: []address{{Email: msg.To, Name: msg.ToName}}}},
		From:             c.from,
		Subject:          msg.Subject,
	}
	if msg.Text != "" {
		body.Content = append(body.Content, content{Type: "text/plain", Value: msg.Text})
	}
	if msg.HTML != "" {
		body.Content = append(body.Content, content{Type: "text/html", Value: msg.HTML})
	}
	if len(body.Content) == 0 {
		return fmt.Errorf("notify: email to %s has no content", msg.To)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/v3/mail/send")
	if err != nil {
		return fmt.Errorf("notify: send email: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notify: send email: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// LogEmailSender stands in when no email provider is configured.
type LogEmailSender struct {
	logger internal.Logger
}

func NewLogEmailSender(logger internal.Logger) *LogEmailSender {
	return &LogEmailSender{logger: logger}
}

func (s *LogEmailSender) Send(ctx context.Context, msg Email) error {
	s.logger.Infow("email delivery disabled, dropping message", "subject", msg.Subject)
	return nil
}

var _ EmailSender = (*SendGridClient)(nil)
var _ EmailSender = (*LogEmailSender)(nil)
