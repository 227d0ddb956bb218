package turntoken

import (
	"context"

	"github.com/louisbranch/carcassonne/internal/services/game/domain/turn"
)

// TurnReader looks up a turn by id.
type TurnReader interface {
	GetTurn(ctx context.Context, turnID string) (turn.Turn, error)
}

// Authorizer decides whether a token holder may play a turn.
type Authorizer struct {
	signer *Signer
	turns  TurnReader
}

// NewAuthorizer builds an Authorizer.
func NewAuthorizer(signer *Signer, turns TurnReader) *Authorizer {
	return &Authorizer{signer: signer, turns: turns}
}

// Authorize reports whether token names a turn that is still pending. Every
// failure, including lookup errors, yields false.
func (a *Authorizer) Authorize(ctx context.Context, token string) bool {
	_, ok := a.PendingTurn(ctx, token)
	return ok
}

// PendingTurn returns the pending turn the token authorizes. Only the first
// payload id is considered.
func (a *Authorizer) PendingTurn(ctx context.Context, token string) (turn.Turn, bool) {
	if a == nil || a.signer == nil || a.turns == nil {
		return turn.Turn{}, false
	}
	payload, err := a.signer.Verify(token)
	if err != nil {
		return turn.Turn{}, false
	}
	t, err := a.turns.GetTurn(ctx, payload[0])
	if err != nil || !t.Pending() {
		return turn.Turn{}, false
	}
	return t, true
}
