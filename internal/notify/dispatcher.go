// Package notify delivers fired price alerts by email or SMS.
package notify

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/trogers1052/portfolio-valuation/internal/models"
)

// Result is the outcome of one delivery attempt
type Result string

// Result constants
const (
	ResultSent   Result = "sent"
	ResultFailed Result = "failed"
)

// Message is a rendered notification
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a message over one transport
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// UserLookup resolves an alert owner's contact details
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Dispatcher routes alerts to the sender for their destination
type Dispatcher struct {
	senders map[string]Sender
	users   UserLookup
	logger  *zap.Logger
}

// NewDispatcher creates a Dispatcher. A nil sender leaves that destination
// unconfigured and its alerts fail delivery.
func NewDispatcher(users UserLookup, email, sms Sender, logger *zap.Logger) *Dispatcher {
	senders := make(map[string]Sender)
	if email != nil {
		senders[models.DestinationEmail] = email
	}
	if sms != nil {
		senders[models.DestinationSMS] = sms
	}
	return &Dispatcher{
		senders: senders,
		users:   users,
		logger:  logger,
	}
}

// Dispatch sends the notification for alert at price. It never returns an
// error: every failure is logged and reported as ResultFailed.
func (d *Dispatcher) Dispatch(ctx context.Context, alert models.Alert, price decimal.Decimal) Result {
	log := d.logger.With(
		zap.String("alert_id", alert.ID),
		zap.String("destination", alert.Destination),
	)

	sender, ok := d.senders[alert.Destination]
	if !ok {
		log.Error("No sender configured for destination")
		return ResultFailed
	}

	to, err := d.address(ctx, alert)
	if err != nil {
		log.Error("Failed to resolve destination address", zap.Error(err))
		return ResultFailed
	}
	if to == "" {
		log.Error("Alert has no destination address")
		return ResultFailed
	}

	if err := sender.Send(ctx, FormatMessage(alert, price, to)); err != nil {
		log.Error("Failed to send notification", zap.Error(err))
		return ResultFailed
	}

	log.Info("Notification sent", zap.String("symbol", alert.Symbol))
	return ResultSent
}

// address returns the alert's own address, falling back to the owner's
// email or phone
func (d *Dispatcher) address(ctx context.Context, alert models.Alert) (string, error) {
	if alert.Address != "" {
		return alert.Address, nil
	}
	if d.users == nil || alert.UserID == "" {
		return "", nil
	}

	user, err := d.users.GetUser(ctx, alert.UserID)
	if err != nil {
		return "", err
	}
	if alert.Destination == models.DestinationSMS {
		return user.Phone, nil
	}
	return user.Email, nil
}
