package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"library-alert/core/reconcile"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// ErrNoRecipient is returned when no mail address is configured.
var ErrNoRecipient = errors.New("no notification address configured")

// Sender delivers a composed mail message.
type Sender interface {
	Send(ctx context.Context, msg *mail.Msg) error
}

// MailNotifier mails the transitions to the configured address.
type MailNotifier struct {
	sender  Sender
	address string
	subject string
	logger  *zap.Logger
	now     func() time.Time
}

// NewMailNotifier creates a notifier sending through sender.
func NewMailNotifier(cfg Config, sender Sender, logger *zap.Logger) *MailNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailNotifier{
		sender:  sender,
		address: cfg.Address,
		subject: cfg.Subject,
		logger:  logger,
		now:     time.Now,
	}
}

// Notify sends one mail whose body is the JSON encoded update set.
func (n *MailNotifier) Notify(ctx context.Context, updates reconcile.UpdateSet) error {
	if n.address == "" {
		return ErrNoRecipient
	}

	msg, err := n.Message(updates)
	if err != nil {
		return err
	}

	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send notification mail: %w", err)
	}

	n.logger.Info("Notification mail sent",
		zap.String("to", n.address),
		zap.Int("transitions", updates.Len()),
	)
	return nil
}

// Message composes the mail for updates. The address is both sender and recipient.
func (n *MailNotifier) Message(updates reconcile.UpdateSet) (*mail.Msg, error) {
	body, err := json.Marshal(updates)
	if err != nil {
		return nil, fmt.Errorf("failed to encode updates: %w", err)
	}

	msg := mail.NewMsg(mail.WithEncoding(mail.NoEncoding))
	if err := msg.From(n.address); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", n.address, err)
	}
	if err := msg.To(n.address); err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", n.address, err)
	}
	msg.Subject(n.subject)
	msg.SetDateWithValue(n.now())
	msg.SetBodyString(mail.TypeTextPlain, string(body))
	return msg, nil
}
