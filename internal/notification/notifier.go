// Package notification delivers replay run alerts to external channels
// (Telegram, webhooks). Delivery is best-effort and never affects the
// run outcome.
package notification

import (
	"context"
	"fmt"
	"log"

	"quant-replayv1/internal/report"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level     AlertLevel `json:"level"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	AccountID string     `json:"account_id,omitempty"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier logs alerts instead of delivering them (useful for development).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// FromReport builds a run-completion alert. Ledger invariant violations
// escalate to CRITICAL; a clean run is INFO.
func FromReport(accountID string, rep *report.Report) Alert {
	if n := len(rep.Violations); n > 0 {
		return Alert{
			Level:     AlertCritical,
			Title:     "Replay finished with invariant violations",
			AccountID: accountID,
			Message: fmt.Sprintf("%d violation(s); first: %s (ticks=%d bars=%d events=%d)",
				n, rep.Violations[0], rep.TicksRead, rep.BarsEmitted, rep.OrderEventsEmitted),
		}
	}
	return Alert{
		Level:     AlertInfo,
		Title:     "Replay complete",
		AccountID: accountID,
		Message: fmt.Sprintf("ticks=%d bars=%d events=%d realized=%.2f unrealized=%.2f",
			rep.TicksRead, rep.BarsEmitted, rep.OrderEventsEmitted,
			rep.TotalRealizedPnL, rep.TotalUnrealizedPnL),
	}
}

// SendAll fans an alert out to every notifier, logging failures.
func SendAll(ctx context.Context, notifiers []Notifier, alert Alert) {
	for _, n := range notifiers {
		if err := n.Send(ctx, alert); err != nil {
			log.Printf("[notify] delivery failed: %v", err)
		}
	}
}
