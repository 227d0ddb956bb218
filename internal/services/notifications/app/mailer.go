package server

import (
	"context"
	"errors"
	"strings"

	"github.com/louisbranch/carcassonne/internal/platform/logging"
	"github.com/louisbranch/carcassonne/internal/services/notifications/domain"
	"github.com/louisbranch/carcassonne/internal/services/notifications/render"
	"go.uber.org/zap"
)

// LogMailer writes each email to the structured log instead of a mail server.
type LogMailer struct {
	From   string
	Logger *zap.Logger
}

var _ domain.Mailer = LogMailer{}

// Send logs one email.
func (m LogMailer) Send(ctx context.Context, email domain.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(email.To) == "" {
		return errors.New("email recipient is required")
	}
	logger := logging.OrNop(m.Logger)
	logger.Info("email sent",
		zap.String("notification_id", email.NotificationID),
		zap.String("from", m.From),
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("body", email.Body),
	)
	return nil
}

// emailRenderer adapts the localized render package to the domain Renderer.
type emailRenderer struct {
	localizer render.Localizer
}

var _ domain.Renderer = emailRenderer{}

func (r emailRenderer) RenderEmail(notification domain.Notification) (string, string) {
	out := render.Render(r.localizer, render.Input{
		Topic:       notification.MessageType,
		PayloadJSON: notification.PayloadJSON,
		Channel:     render.ChannelEmail,
	})
	return out.EmailSubject, out.BodyText
}
