package game

import (
	"context"
	"errors"
	"math"
	"net/url"
	"strings"
	"testing"
	"time"

	apperrors "github.com/louisbranch/carcassonne/internal/platform/errors"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/board"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/tile"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/turn"
)

func TestStartGameRequiresTwoPlayers(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	for _, ids := range [][]string{nil, {alice.ID}} {
		_, err := h.svc.StartGame(context.Background(), StartGameInput{PlayerIDs: ids})
		if !errors.Is(err, ErrInsufficientPlayers) {
			t.Fatalf("StartGame(%v) error = %v, want ErrInsufficientPlayers", ids, err)
		}
	}
	if got := len(h.notifier.messages()); got != 0 {
		t.Fatalf("notifications = %d, want 0", got)
	}
	if games, _ := h.store.ListGames(context.Background()); len(games) != 0 {
		t.Fatalf("games persisted = %d, want 0", len(games))
	}
}

func TestStartGameSeatsPlayersAndDealsFirstTurn(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	g, err := h.svc.StartGame(context.Background(), StartGameInput{
		PlayerIDs: []string{alice.ID, bob.ID, carol.ID},
	})
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if len(g.Players) != 3 || g.Players[0].ID != alice.ID || g.Players[1].ID != bob.ID {
		t.Fatalf("seats = %v", g.SeatIDs())
	}
	if len(g.Turns) != 2 {
		t.Fatalf("turns = %d, want 2", len(g.Turns))
	}

	start := g.Turns[0]
	if start.Pending() || *start.Position != (turn.Position{}) || start.PlayerID != alice.ID || start.TileID != tile.StartTileID {
		t.Fatalf("unexpected start turn: %+v", start)
	}
	pending := g.Turns[1]
	if !pending.Pending() || pending.Position != nil || pending.PlayerID != bob.ID {
		t.Fatalf("unexpected pending turn: %+v", pending)
	}
	if pending.TileID == tile.StartTileID {
		t.Fatal("pending tile must not reuse the start tile")
	}

	stored, err := h.svc.GetGame(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if len(stored.Turns) != 2 {
		t.Fatalf("stored turns = %d, want 2", len(stored.Turns))
	}

	sent := h.notifier.messages()
	if len(sent) != 1 {
		t.Fatalf("notifications = %d, want 1", len(sent))
	}
	if sent[0].player.ID != bob.ID || sent[0].subject != TurnSubject {
		t.Fatalf("unexpected notification: %+v", sent[0])
	}

	token := signatureFromBody(t, sent[0].body, g.ID)
	payload, err := h.signer.Verify(token)
	if err != nil {
		t.Fatalf("verify notification token: %v", err)
	}
	if len(payload) != 1 || payload[0] != pending.ID {
		t.Fatalf("token payload = %v, want [%s]", payload, pending.ID)
	}
	if !h.svc.Authorize(context.Background(), token) {
		t.Fatal("notification token should authorize the pending turn")
	}
}

func TestStartGameWithDemoOpening(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	g, err := h.svc.StartGame(context.Background(), StartGameInput{
		PlayerIDs: []string{alice.ID, bob.ID},
		Opening:   DemoOpening(),
	})
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if len(g.Turns) != len(DemoOpening())+2 {
		t.Fatalf("turns = %d, want %d", len(g.Turns), len(DemoOpening())+2)
	}
	pending, ok := g.PendingTurn()
	if !ok {
		t.Fatal("expected a pending turn")
	}
	for _, placed := range g.Turns[:len(g.Turns)-1] {
		if placed.Pending() || placed.PlayerID != alice.ID {
			t.Fatalf("opening turn should be played by the first seat: %+v", placed)
		}
		if placed.TileID == pending.TileID {
			t.Fatalf("pending tile %d already in use", pending.TileID)
		}
	}
	if last := g.Turns[len(g.Turns)-1]; last.ID != pending.ID {
		t.Fatal("pending turn should sort last")
	}
}

func TestStartGameRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input StartGameInput
		want  error
	}{
		{
			name:  "duplicate player",
			input: StartGameInput{PlayerIDs: []string{alice.ID, alice.ID}},
			want:  ErrDuplicatePlayer,
		},
		{
			name:  "unknown player",
			input: StartGameInput{PlayerIDs: []string{alice.ID, "ghost"}},
			want:  ErrNotFound,
		},
		{
			name:  "opening on start square",
			input: StartGameInput{PlayerIDs: []string{alice.ID, bob.ID}, Opening: []Placement{{X: 0, Y: 0, TileID: 1}}},
			want:  ErrPositionOccupied,
		},
		{
			name:  "opening out of range",
			input: StartGameInput{PlayerIDs: []string{alice.ID, bob.ID}, Opening: []Placement{{X: board.MaxCoordinate + 1, Y: 0, TileID: 1}}},
			want:  ErrPositionOutOfRange,
		},
		{
			name:  "unknown opening tile",
			input: StartGameInput{PlayerIDs: []string{alice.ID, bob.ID}, Opening: []Placement{{X: 1, Y: 0, TileID: 999}}},
			want:  tile.ErrUnknownTile,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, nil)
			_, err := h.svc.StartGame(context.Background(), tt.input)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if len(h.notifier.messages()) != 0 {
				t.Fatal("failed start must not notify")
			}
		})
	}
}

func TestStartGameSurvivesNotificationFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.notifier.err = errors.New("smtp down")
	g, err := h.svc.StartGame(context.Background(), StartGameInput{PlayerIDs: []string{alice.ID, bob.ID}})
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if _, err := h.svc.GetGame(context.Background(), g.ID); err != nil {
		t.Fatalf("game should persist despite notification failure: %v", err)
	}
}

func TestStartGamePersistenceFailureSkipsNotification(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.store.failCreate = errors.New("disk full")
	if _, err := h.svc.StartGame(context.Background(), StartGameInput{PlayerIDs: []string{alice.ID, bob.ID}}); err == nil {
		t.Fatal("expected persistence error")
	}
	if len(h.notifier.messages()) != 0 {
		t.Fatal("unpersisted game must not notify")
	}
}

func TestStartGameIDGeneratorFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	WithIDGenerator(failingIDGenerator())(h.svc)
	if _, err := h.svc.StartGame(context.Background(), StartGameInput{PlayerIDs: []string{alice.ID, bob.ID}}); err == nil {
		t.Fatal("expected id generator error")
	}
}

func TestCommitTurn(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	g := startTwoPlayerGame(t, h)
	pending, _ := g.PendingTurn()

	played, err := h.svc.CommitTurn(context.Background(), CommitTurnInput{TurnID: pending.ID, X: 1, Y: 0})
	if err != nil {
		t.Fatalf("commit turn: %v", err)
	}
	if played.Pending() || *played.Position != (turn.Position{X: 1, Y: 0}) || !played.PlayedAt.Equal(testNow) {
		t.Fatalf("unexpected committed turn: %+v", played)
	}

	_, err = h.svc.CommitTurn(context.Background(), CommitTurnInput{TurnID: pending.ID, X: 2, Y: 0})
	if !errors.Is(err, ErrTurnNotPending) {
		t.Fatalf("second commit error = %v, want ErrTurnNotPending", err)
	}

	after, err := h.svc.GetGame(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if _, ok := after.PendingTurn(); ok {
		t.Fatal("commit must not deal the next turn")
	}
}

func TestCommitTurnErrors(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	g := startTwoPlayerGame(t, h)
	pending, _ := g.PendingTurn()

	tests := []struct {
		name  string
		input CommitTurnInput
		want  error
		kind  apperrors.Kind
	}{
		{name: "missing id", input: CommitTurnInput{TurnID: "  "}, want: ErrTurnIDRequired, kind: apperrors.KindInvalidArgument},
		{name: "unknown turn", input: CommitTurnInput{TurnID: "nope"}, want: ErrNotFound, kind: apperrors.KindNotFound},
		{name: "occupied", input: CommitTurnInput{TurnID: pending.ID, X: 0, Y: 0}, want: ErrPositionOccupied, kind: apperrors.KindFailedPrecondition},
		{name: "max int x", input: CommitTurnInput{TurnID: pending.ID, X: math.MaxInt, Y: 0}, want: ErrPositionOutOfRange, kind: apperrors.KindInvalidArgument},
		{name: "far y", input: CommitTurnInput{TurnID: pending.ID, X: 0, Y: -1_000_000_000}, want: ErrPositionOutOfRange, kind: apperrors.KindInvalidArgument},
	}
	for _, tt := range tests {
		_, err := h.svc.CommitTurn(context.Background(), tt.input)
		if !errors.Is(err, tt.want) {
			t.Fatalf("%s: error = %v, want %v", tt.name, err, tt.want)
		}
		if apperrors.KindOf(err) != tt.kind {
			t.Fatalf("%s: kind = %s, want %s", tt.name, apperrors.KindOf(err), tt.kind)
		}
	}
}

func TestCommitTurnOutOfRangeKeepsBoardReadable(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	g := startTwoPlayerGame(t, h)
	pending, _ := g.PendingTurn()

	if _, err := h.svc.CommitTurn(context.Background(), CommitTurnInput{TurnID: pending.ID, X: math.MaxInt, Y: 0}); !errors.Is(err, ErrPositionOutOfRange) {
		t.Fatalf("commit error = %v, want ErrPositionOutOfRange", err)
	}
	view, err := h.svc.ViewGame(context.Background(), g.ID, "")
	if err != nil {
		t.Fatalf("view game: %v", err)
	}
	if len(view.Board) != 3 {
		t.Fatalf("board rows = %d, want 3", len(view.Board))
	}
	still, err := h.svc.GetGame(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if _, ok := still.PendingTurn(); !ok {
		t.Fatal("rejected commit must leave the turn pending")
	}

	if _, err := h.svc.CommitTurn(context.Background(), CommitTurnInput{TurnID: pending.ID, X: board.MaxCoordinate, Y: -board.MaxCoordinate}); err != nil {
		t.Fatalf("commit at bound: %v", err)
	}
	view, err = h.svc.ViewGame(context.Background(), g.ID, "")
	if err != nil {
		t.Fatalf("view game after commit at bound: %v", err)
	}
	if len(view.Board) != board.MaxCoordinate+3 {
		t.Fatalf("board rows = %d, want %d", len(view.Board), board.MaxCoordinate+3)
	}
}

func TestViewGameStoredOutOfRangeTurn(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	g := startTwoPlayerGame(t, h)
	h.store.saveTurns([]turn.Turn{
		turn.NewPlaced("zz-far", g.ID, alice.ID, 1, turn.Position{X: math.MaxInt, Y: 0}, testNow),
	})

	_, err := h.svc.ViewGame(context.Background(), g.ID, "")
	if !errors.Is(err, ErrPositionOutOfRange) {
		t.Fatalf("view game error = %v, want ErrPositionOutOfRange", err)
	}
}

func TestAuthorizeFlipsAfterCommit(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	g := startTwoPlayerGame(t, h)
	pending, _ := g.PendingTurn()
	token, err := h.signer.Sign([]string{pending.ID})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if !h.svc.Authorize(context.Background(), token) {
		t.Fatal("expected authorization before commit")
	}
	if _, err := h.svc.CommitTurn(context.Background(), CommitTurnInput{TurnID: pending.ID, X: 0, Y: 1}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if h.svc.Authorize(context.Background(), token) {
		t.Fatal("expected no authorization after commit")
	}
}

func TestAdvanceTurnRotatesSeats(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	g, err := h.svc.StartGame(context.Background(), StartGameInput{PlayerIDs: []string{alice.ID, bob.ID, carol.ID}})
	if err != nil {
		t.Fatalf("start game: %v", err)
	}

	if _, err := h.svc.AdvanceTurn(context.Background(), g.ID); !errors.Is(err, ErrTurnPending) {
		t.Fatalf("advance with pending turn error = %v, want ErrTurnPending", err)
	}

	wantOrder := []string{carol.ID, alice.ID, bob.ID}
	x := 1
	for _, want := range wantOrder {
		current, err := h.svc.GetGame(context.Background(), g.ID)
		if err != nil {
			t.Fatalf("get game: %v", err)
		}
		pending, ok := current.PendingTurn()
		if !ok {
			t.Fatal("expected pending turn")
		}
		// Later commits must sort after earlier ones.
		WithClock(fixedClock(testNow.Add(time.Duration(x) * time.Minute)))(h.svc)
		if _, err := h.svc.CommitTurn(context.Background(), CommitTurnInput{TurnID: pending.ID, X: x}); err != nil {
			t.Fatalf("commit: %v", err)
		}
		x++

		next, err := h.svc.AdvanceTurn(context.Background(), g.ID)
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		if next.PlayerID != want {
			t.Fatalf("next player = %s, want %s", next.PlayerID, want)
		}
		if _, used := turn.UsedTileIDs(current.Turns)[next.TileID]; used {
			t.Fatalf("dealt tile %d already in use", next.TileID)
		}
	}

	if got := len(h.notifier.messages()); got != 1+len(wantOrder) {
		t.Fatalf("notifications = %d, want %d", got, 1+len(wantOrder))
	}
}

func TestAdvanceTurnExhaustedCatalog(t *testing.T) {
	t.Parallel()

	deck := tile.StandardDeck()[tile.StartTileID-2 : tile.StartTileID]
	h := newHarness(t, deck)
	g := startTwoPlayerGame(t, h)
	pending, _ := g.PendingTurn()
	if _, err := h.svc.CommitTurn(context.Background(), CommitTurnInput{TurnID: pending.ID, X: 1}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	_, err := h.svc.AdvanceTurn(context.Background(), g.ID)
	if !errors.Is(err, tile.ErrCatalogExhausted) || !apperrors.IsNotFound(err) {
		t.Fatalf("advance error = %v, want exhausted catalog", err)
	}
}

func TestViewGame(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	g := startTwoPlayerGame(t, h)
	other := startTwoPlayerGame(t, h)
	pending, _ := g.PendingTurn()
	otherPending, _ := other.PendingTurn()

	token, _ := h.signer.Sign([]string{pending.ID})
	otherToken, _ := h.signer.Sign([]string{otherPending.ID})

	view, err := h.svc.ViewGame(context.Background(), g.ID, token)
	if err != nil {
		t.Fatalf("view game: %v", err)
	}
	if !view.IsPlayersTurn || view.PendingTurn == nil || view.PendingTurn.ID != pending.ID {
		t.Fatalf("expected players turn, got %+v", view)
	}
	if len(view.Board) != 3 || len(view.Board[0]) != 3 || !view.Board[1][1].Occupied() {
		t.Fatalf("unexpected board: %+v", view.Board)
	}

	for name, tok := range map[string]string{"none": "", "garbage": "abc", "other game": otherToken} {
		view, err := h.svc.ViewGame(context.Background(), g.ID, tok)
		if err != nil {
			t.Fatalf("%s: view game: %v", name, err)
		}
		if view.IsPlayersTurn || view.PendingTurn != nil {
			t.Fatalf("%s: expected no authorization", name)
		}
	}

	if _, err := h.svc.ViewGame(context.Background(), "missing", token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown game error = %v, want ErrNotFound", err)
	}
}

func TestRegisterPlayer(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	p, err := h.svc.RegisterPlayer(context.Background(), RegisterPlayerInput{Username: " dave ", Email: "Dave@Example.com"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if p.Username != "dave" || p.Email != "dave@example.com" || p.ID == "" || !p.CreatedAt.Equal(testNow) {
		t.Fatalf("unexpected player: %+v", p)
	}

	tests := []struct {
		name  string
		input RegisterPlayerInput
		want  error
	}{
		{name: "blank username", input: RegisterPlayerInput{Username: " ", Email: "x@example.com"}, want: ErrUsernameRequired},
		{name: "bad email", input: RegisterPlayerInput{Username: "x", Email: "not-an-email"}, want: ErrEmailInvalid},
		{name: "display name email", input: RegisterPlayerInput{Username: "x", Email: "X <x@example.com>"}, want: ErrEmailInvalid},
		{name: "taken username", input: RegisterPlayerInput{Username: "alice", Email: "new@example.com"}, want: ErrPlayerConflict},
	}
	for _, tt := range tests {
		if _, err := h.svc.RegisterPlayer(context.Background(), tt.input); !errors.Is(err, tt.want) {
			t.Fatalf("%s: error = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestUnconfiguredService(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, nil, nil)
	if _, err := svc.StartGame(context.Background(), StartGameInput{PlayerIDs: []string{"a", "b"}}); !errors.Is(err, ErrStoreNotConfigured) {
		t.Fatalf("error = %v, want ErrStoreNotConfigured", err)
	}
	if svc.Authorize(context.Background(), "token") {
		t.Fatal("unconfigured service must not authorize")
	}
	if svc.Tiles() != nil {
		t.Fatal("expected no tiles without a catalog")
	}
}

func TestBaseURLLinks(t *testing.T) {
	t.Parallel()

	link := BaseURLLinks("https://carcassonne.example.com/")("game 1", "a.b+c")
	want := "https://carcassonne.example.com/games/game%201?signature=a.b%2Bc"
	if link != want {
		t.Fatalf("link = %q, want %q", link, want)
	}
}

func startTwoPlayerGame(t *testing.T, h harness) Game {
	t.Helper()
	g, err := h.svc.StartGame(context.Background(), StartGameInput{PlayerIDs: []string{alice.ID, bob.ID}})
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	return g
}

func signatureFromBody(t *testing.T, body, gameID string) string {
	t.Helper()
	idx := strings.Index(body, "https://")
	if idx < 0 {
		t.Fatalf("no link in body %q", body)
	}
	link, err := url.Parse(strings.TrimSpace(body[idx:]))
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	if link.Path != "/games/"+gameID {
		t.Fatalf("link path = %q", link.Path)
	}
	return link.Query().Get("signature")
}
