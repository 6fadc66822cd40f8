package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"loopimmo/server/internal/models"
)

const defaultAPIBase = "https://api.telegram.org"

type Config struct {
	Enabled  bool
	BotToken string
	ChatID   string

	// APIBase overrides the Telegram endpoint, mostly for tests
	APIBase string
}

// Service posts activity notifications to a Telegram chat.
type Service struct {
	logger *logrus.Logger
	client *http.Client
	config Config
}

func NewService(cfg Config, logger *logrus.Logger) *Service {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	return &Service{
		logger: logger,
		config: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// notable lists the event kinds staff are told about.
var notable = map[models.EventKind]string{
	models.EventEstimation:         "📈 <b>New estimation request</b>",
	models.EventApplicationCreated: "🙋 <b>New ambassador application</b>",
	models.EventLeadCreated:        "📇 <b>New lead</b>",
	models.EventContractSigned:     "✍️ <b>Contract fully signed</b>",
	models.EventVisitReminder:      "⏰ <b>Upcoming visit</b>",
	models.EventPropertyStatus:     "🏠 <b>Listing status changed</b>",
}

// FormatEvent renders an event as an HTML Telegram message. It returns false
// for events staff are not notified about.
func FormatEvent(e *models.ActivityEvent) (string, bool) {
	title, ok := notable[e.Kind]
	if !ok {
		return "", false
	}
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")
	b.WriteString(html.EscapeString(e.Message))
	if e.EntityID != 0 {
		fmt.Fprintf(&b, "\n\n🔖 %s #%d", html.EscapeString(e.EntityType), e.EntityID)
	}
	return b.String(), true
}

// NotifyEvents sends one message per notable event in the batch. It is
// meant to be subscribed to the event queue.
func (s *Service) NotifyEvents(events []*models.ActivityEvent) error {
	if !s.config.Enabled {
		return nil
	}

	var errs []error
	for _, e := range events {
		message, ok := FormatEvent(e)
		if !ok {
			continue
		}
		if err := s.SendMessage(context.Background(), message); err != nil {
			s.logger.WithError(err).WithField("kind", e.Kind).Error("Failed to send Telegram notification")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SendMessage sends a message to the configured Telegram chat
func (s *Service) SendMessage(ctx context.Context, message string) error {
	if !s.config.Enabled {
		return nil
	}
	if s.config.BotToken == "" {
		return errors.New("telegram bot token is not configured")
	}
	if s.config.ChatID == "" {
		return errors.New("telegram chat ID is not configured")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.config.APIBase, s.config.BotToken)
	payload := map[string]interface{}{
		"chat_id":    s.config.ChatID,
		"text":       message,
		"parse_mode": "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to build Telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return errors.New("invalid bot token")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", string(body))
		case http.StatusForbidden:
			return errors.New("bot was blocked by the user or chat")
		case http.StatusNotFound:
			return errors.New("bot not found")
		default:
			return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, string(body))
		}
	}

	return nil
}
