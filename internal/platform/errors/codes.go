// Package errors provides structured domain errors classified by code.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
	CodeConflict Code = "CONFLICT"

	// Tile catalog errors
	CodeTileCatalogExhausted Code = "TILE_CATALOG_EXHAUSTED"
	CodeTileUnknown          Code = "TILE_UNKNOWN"

	// Board errors
	CodeBoardEmpty              Code = "BOARD_EMPTY"
	CodeBoardPositionOutOfRange Code = "BOARD_POSITION_OUT_OF_RANGE"

	// Game errors
	CodeGameInsufficientPlayers Code = "GAME_INSUFFICIENT_PLAYERS"
	CodeGameDuplicatePlayer     Code = "GAME_DUPLICATE_PLAYER"
	CodeGameIDRequired          Code = "GAME_ID_REQUIRED"

	// Turn errors
	CodeTurnIDRequired       Code = "TURN_ID_REQUIRED"
	CodeTurnNotPending       Code = "TURN_NOT_PENDING"
	CodeTurnPending          Code = "TURN_PENDING"
	CodeTurnPositionOccupied Code = "TURN_POSITION_OCCUPIED"
	CodeTurnTokenInvalid     Code = "TURN_TOKEN_INVALID"

	// Player errors
	CodePlayerUsernameEmpty Code = "PLAYER_USERNAME_EMPTY"
	CodePlayerEmailInvalid  Code = "PLAYER_EMAIL_INVALID"
	CodePlayerConflict      Code = "PLAYER_CONFLICT"
)

// Kind groups codes by how callers should react to them.
type Kind int

const (
	// KindInternal marks unexpected failures.
	KindInternal Kind = iota
	// KindInvalidArgument marks validation failures and bad input.
	KindInvalidArgument
	// KindFailedPrecondition marks state that does not allow the operation.
	KindFailedPrecondition
	// KindNotFound marks missing resources.
	KindNotFound
	// KindAlreadyExists marks uniqueness conflicts.
	KindAlreadyExists
)

// String returns a lowercase label for the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindFailedPrecondition:
		return "failed precondition"
	case KindNotFound:
		return "not found"
	case KindAlreadyExists:
		return "already exists"
	default:
		return "internal"
	}
}

// Kind maps a domain code to its kind.
func (c Code) Kind() Kind {
	switch c {
	case CodeGameInsufficientPlayers,
		CodeGameDuplicatePlayer,
		CodeGameIDRequired,
		CodeTurnIDRequired,
		CodeTurnTokenInvalid,
		CodePlayerUsernameEmpty,
		CodePlayerEmailInvalid,
		CodeBoardPositionOutOfRange:
		return KindInvalidArgument

	case CodeBoardEmpty,
		CodeTurnNotPending,
		CodeTurnPending,
		CodeTurnPositionOccupied:
		return KindFailedPrecondition

	// An exhausted catalog means no tile could be found for the draw.
	case CodeNotFound,
		CodeTileCatalogExhausted,
		CodeTileUnknown:
		return KindNotFound

	case CodeConflict,
		CodePlayerConflict:
		return KindAlreadyExists

	default:
		return KindInternal
	}
}
