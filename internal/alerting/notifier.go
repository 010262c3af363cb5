package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"crypto-price-tracker/internal/storage"
)

// Notification carries an alert record plus the threshold it breached.
type Notification struct {
	Record    storage.AlertRecord
	Threshold decimal.Decimal
}

// Notifier delivers triggered alerts to an external channel.
type Notifier interface {
	Notify(ctx context.Context, note Notification) error
}

// TelegramNotifier pushes alerts through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram notifier.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify calls the sendMessage API with a rendered alert summary.
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().
		Str("coin", note.Record.Coin).
		Str("drop_pct", note.Record.DropPct.String()).
		Msg("alert delivered (telegram)")
	return nil
}

func renderMessage(note Notification) string {
	rec := note.Record
	builder := strings.Builder{}
	builder.WriteString("[Price Drop Alert]\n")
	builder.WriteString(fmt.Sprintf("Coin: %s\n", rec.Coin))
	builder.WriteString(fmt.Sprintf("Time: %s UTC\n", rec.Timestamp.UTC().Format(time.RFC3339)))
	builder.WriteString(fmt.Sprintf("Previous: %s\n", rec.PreviousPrice.String()))
	builder.WriteString(fmt.Sprintf("Current: %s\n", rec.CurrentPrice.String()))
	builder.WriteString(fmt.Sprintf("Drop: %s%% (threshold %s%%)\n",
		rec.DropPct.Mul(decimal.NewFromInt(100)).StringFixed(2),
		note.Threshold.Mul(decimal.NewFromInt(100)).StringFixed(2)))
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
