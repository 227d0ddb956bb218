package server

import (
	"context"

	"github.com/louisbranch/carcassonne/internal/services/game/domain/game"
	notifications "github.com/louisbranch/carcassonne/internal/services/notifications/app"
)

// outboxNotifier records game notifications in the notification outbox.
// Emails leave the outbox when it is drained.
type outboxNotifier struct {
	outbox *notifications.Outbox
}

var _ game.Notifier = outboxNotifier{}

func (n outboxNotifier) Send(ctx context.Context, player game.Player, subject, body string) error {
	_, err := n.outbox.TurnReady(ctx, player.ID, player.Email, subject, body, "")
	return err
}
