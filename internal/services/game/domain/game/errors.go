package game

import (
	"errors"

	apperrors "github.com/louisbranch/carcassonne/internal/platform/errors"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/board"
)

var (
	// ErrNotFound indicates a game, player, or turn does not exist.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "not found")
	// ErrConflict indicates a write collided with an existing record.
	ErrConflict = apperrors.New(apperrors.CodeConflict, "conflict")
	// ErrInsufficientPlayers indicates fewer than two players were seated.
	ErrInsufficientPlayers = apperrors.New(apperrors.CodeGameInsufficientPlayers, "a game needs at least two players")
	// ErrDuplicatePlayer indicates a player was seated twice.
	ErrDuplicatePlayer = apperrors.New(apperrors.CodeGameDuplicatePlayer, "player seated more than once")
	// ErrGameIDRequired indicates a missing game id.
	ErrGameIDRequired = apperrors.New(apperrors.CodeGameIDRequired, "game id is required")
	// ErrTurnIDRequired indicates a missing turn id.
	ErrTurnIDRequired = apperrors.New(apperrors.CodeTurnIDRequired, "turn id is required")
	// ErrTurnNotPending indicates the turn was already played.
	ErrTurnNotPending = apperrors.New(apperrors.CodeTurnNotPending, "turn was already played")
	// ErrTurnPending indicates the game still waits on a pending turn.
	ErrTurnPending = apperrors.New(apperrors.CodeTurnPending, "game has a pending turn")
	// ErrPositionOccupied indicates a tile already sits on the coordinate.
	ErrPositionOccupied = apperrors.New(apperrors.CodeTurnPositionOccupied, "position is occupied")
	// ErrPositionOutOfRange indicates a coordinate beyond board.MaxCoordinate.
	ErrPositionOutOfRange = board.ErrPositionOutOfRange
	// ErrUsernameRequired indicates a blank username.
	ErrUsernameRequired = apperrors.New(apperrors.CodePlayerUsernameEmpty, "username is required")
	// ErrEmailInvalid indicates a missing or malformed email.
	ErrEmailInvalid = apperrors.New(apperrors.CodePlayerEmailInvalid, "email is invalid")
	// ErrPlayerConflict indicates the username or email is taken.
	ErrPlayerConflict = apperrors.New(apperrors.CodePlayerConflict, "username or email already registered")

	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("game store is not configured")
	// ErrCatalogNotConfigured indicates the service has no tile catalog.
	ErrCatalogNotConfigured = errors.New("tile catalog is not configured")
	// ErrSignerNotConfigured indicates the service cannot sign turn tokens.
	ErrSignerNotConfigured = errors.New("turn token signer is not configured")
)
