package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alienxp03/santa/internal/core"
)

// DefaultEmailJSEndpoint is the EmailJS REST endpoint for sending a template.
const DefaultEmailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// EmailJSConfig holds EmailJS credentials. They are passed in explicitly at
// construction; nothing is read from the environment here.
type EmailJSConfig struct {
	Endpoint    string
	ServiceID   string
	TemplateID  string
	UserID      string // EmailJS public key
	AccessToken string // private key, optional
}

// EmailJSNotifier sends each giver an e-mail through an EmailJS template.
type EmailJSNotifier struct {
	httpClient *http.Client
	cfg        EmailJSConfig
	logger     *slog.Logger
}

// NewEmailJSNotifier creates an EmailJS notifier.
func NewEmailJSNotifier(httpClient *http.Client, cfg EmailJSConfig, logger *slog.Logger) (*EmailJSNotifier, error) {
	if cfg.ServiceID == "" || cfg.TemplateID == "" || cfg.UserID == "" {
		return nil, fmt.Errorf("emailjs: service id, template id and user id are required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEmailJSEndpoint
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailJSNotifier{httpClient: httpClient, cfg: cfg, logger: logger}, nil
}

// sendRequest mirrors the EmailJS send API.
type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// Name implements Notifier.
func (n *EmailJSNotifier) Name() string { return "emailjs" }

// Notify implements Notifier.
func (n *EmailJSNotifier) Notify(ctx context.Context, giver, receiver core.Participant) error {
	if giver.Contact == "" {
		return &Error{Notifier: n.Name(), Giver: giver.Name, Err: fmt.Errorf("no contact address")}
	}

	body, err := json.Marshal(sendRequest{
		ServiceID:      n.cfg.ServiceID,
		TemplateID:     n.cfg.TemplateID,
		UserID:         n.cfg.UserID,
		AccessToken:    n.cfg.AccessToken,
		TemplateParams: templateParams(giver, receiver),
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return &Error{Notifier: n.Name(), Giver: giver.Name, Err: fmt.Errorf("http call: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return &Error{Notifier: n.Name(), Giver: giver.Name, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return &Error{
			Notifier: n.Name(),
			Giver:    giver.Name,
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
		}
	}

	n.logger.DebugContext(ctx, "EmailJS message sent", "giver", giver.Name, "status", resp.StatusCode)
	return nil
}

func templateParams(giver, receiver core.Participant) map[string]string {
	wishes := receiver.Wishes
	if wishes == "" {
		wishes = "No gift ideas shared."
	}
	return map[string]string{
		"to_name":         giver.Name,
		"to_email":        giver.Contact,
		"receiver_name":   receiver.Name,
		"receiver_wishes": wishes,
		"message": fmt.Sprintf("Hi %s! You are the Secret Santa for %s. Gift ideas: %s",
			giver.Name, receiver.Name, wishes),
	}
}
