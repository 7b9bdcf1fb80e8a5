package folio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Mailer forwards contact-form submissions to an EmailJS-compatible
// transactional-email endpoint. The integration is optional: a nil Mailer
// (or incomplete config) means messages are only stored, never forwarded.
type Mailer struct {
	cfg    EmailConfig
	client *http.Client
	log    *zap.Logger
}

// NewMailer returns a Mailer, or nil when the integration is not fully
// configured.
func NewMailer(cfg EmailConfig, log *zap.Logger) *Mailer {
	if !cfg.Enabled() {
		return nil
	}
	return &Mailer{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log.Named("mailer"),
	}
}

type emailPayload struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

// Send posts the contact form fields to the email template.
func (m *Mailer) Send(ctx context.Context, name, email, message string) error {
	payload := emailPayload{
		ServiceID:  m.cfg.ServiceID,
		TemplateID: m.cfg.TemplateID,
		UserID:     m.cfg.PublicKey,
		TemplateParams: map[string]string{
			"from_name":  name,
			"from_email": email,
			"message":    message,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send email: status %d: %s", resp.StatusCode, detail)
	}
	m.log.Info("contact notification sent", zap.String("from", email))
	return nil
}
