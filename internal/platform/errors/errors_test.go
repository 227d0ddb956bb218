package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	t.Parallel()

	sentinel := New(CodeNotFound, "record not found")
	other := WithMetadata(CodeNotFound, "game not found", map[string]string{"GameID": "g-1"})
	if !stderrors.Is(other, sentinel) {
		t.Fatal("expected errors with the same code to match")
	}
	if stderrors.Is(New(CodeBoardEmpty, "empty"), sentinel) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapUnwrapsCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("disk on fire")
	err := Wrap(CodeUnknown, "load game", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}
	if err.Error() != "load game" {
		t.Fatalf("message = %q, want %q", err.Error(), "load game")
	}
}

func TestKindOfClassifiesWrappedDomainErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindInternal},
		{name: "plain", err: fmt.Errorf("boom"), want: KindInternal},
		{name: "not found", err: New(CodeNotFound, "missing"), want: KindNotFound},
		{name: "catalog exhausted", err: New(CodeTileCatalogExhausted, "no tiles left"), want: KindNotFound},
		{name: "wrapped precondition", err: fmt.Errorf("commit: %w", New(CodeTurnNotPending, "played")), want: KindFailedPrecondition},
		{name: "insufficient players", err: New(CodeGameInsufficientPlayers, "need two"), want: KindInvalidArgument},
		{name: "conflict", err: New(CodePlayerConflict, "taken"), want: KindAlreadyExists},
		{name: "out of range", err: New(CodeBoardPositionOutOfRange, "too far"), want: KindInvalidArgument},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	if !IsNotFound(fmt.Errorf("draw: %w", New(CodeTileCatalogExhausted, "no tiles left"))) {
		t.Fatal("expected exhausted catalog to classify as not found")
	}
	if IsNotFound(nil) {
		t.Fatal("expected nil not to classify as not found")
	}
}
