package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/carcassonne/internal/random"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/tile"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/turn"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/turntoken"
)

type fakeStore struct {
	mu      sync.Mutex
	players map[string]Player
	games   map[string]Game
	turns   map[string]turn.Turn
}

func newFakeStore(players ...Player) *fakeStore {
	s := &fakeStore{
		players: map[string]Player{},
		games:   map[string]Game{},
		turns:   map[string]turn.Turn{},
	}
	for _, p := range players {
		s.players[p.ID] = p
	}
	return s
}

func (s *fakeStore) PutPlayer(_ context.Context, player Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.players {
		if existing.Username == player.Username || existing.Email == player.Email {
			return ErrConflict
		}
	}
	s.players[player.ID] = player
	return nil
}

func (s *fakeStore) GetPlayer(_ context.Context, playerID string) (Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return Player{}, ErrNotFound
	}
	return p, nil
}

func (s *fakeStore) ListPlayers(context.Context) ([]Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *fakeStore) CreateGame(_ context.Context, g Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[g.ID]; ok {
		return ErrConflict
	}
	g.Turns = nil
	s.games[g.ID] = g
	return nil
}

func (s *fakeStore) saveTurns(turns []turn.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range turns {
		s.turns[t.ID] = t
	}
}

func (s *fakeStore) GetGame(_ context.Context, gameID string) (Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return Game{}, ErrNotFound
	}
	g.Turns = s.gameTurnsLocked(gameID)
	return g, nil
}

func (s *fakeStore) ListGames(ctx context.Context) ([]Game, error) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	sort.Strings(ids)

	out := make([]Game, 0, len(ids))
	for _, id := range ids {
		g, err := s.GetGame(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *fakeStore) gameTurnsLocked(gameID string) []turn.Turn {
	var out []turn.Turn
	for _, t := range s.turns {
		if t.GameID == gameID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *fakeStore) GetTurn(_ context.Context, turnID string) (turn.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.turns[turnID]
	if !ok {
		return turn.Turn{}, ErrNotFound
	}
	return t, nil
}

func (s *fakeStore) AppendTurn(_ context.Context, t turn.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := turn.FindPending(s.gameTurnsLocked(t.GameID)); ok {
		return ErrTurnPending
	}
	s.turns[t.ID] = t
	return nil
}

func (s *fakeStore) CommitTurn(_ context.Context, turnID string, pos turn.Position, playedAt time.Time) (turn.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.turns[turnID]
	if !ok {
		return turn.Turn{}, ErrNotFound
	}
	if !t.Pending() {
		return turn.Turn{}, ErrTurnNotPending
	}
	if turn.Occupied(s.gameTurnsLocked(t.GameID), pos) {
		return turn.Turn{}, ErrPositionOccupied
	}
	t = t.Commit(pos, playedAt)
	s.turns[turnID] = t
	return t, nil
}

// createGameStore records opening turns alongside the game, as the real
// store does inside one transaction.
type createGameStore struct {
	*fakeStore
	failCreate error
}

func (s *createGameStore) CreateGame(ctx context.Context, g Game) error {
	if s.failCreate != nil {
		return s.failCreate
	}
	if err := s.fakeStore.CreateGame(ctx, g); err != nil {
		return err
	}
	s.saveTurns(g.Turns)
	return nil
}

type sentMessage struct {
	player  Player
	subject string
	body    string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, player Player, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{player: player, subject: subject, body: body})
	return n.err
}

func (n *fakeNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequentialIDGenerator() func() (string, error) {
	var mu sync.Mutex
	next := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		next++
		return fmt.Sprintf("id-%03d", next), nil
	}
}

func failingIDGenerator() func() (string, error) {
	return func() (string, error) { return "", errors.New("entropy exhausted") }
}

var (
	testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	alice = Player{ID: "player-alice", Username: "alice", Email: "alice@example.com", CreatedAt: testNow}
	bob   = Player{ID: "player-bob", Username: "bob", Email: "bob@example.com", CreatedAt: testNow}
	carol = Player{ID: "player-carol", Username: "carol", Email: "carol@example.com", CreatedAt: testNow}
)

type harness struct {
	svc      *Service
	store    *createGameStore
	notifier *fakeNotifier
	signer   *turntoken.Signer
}

func newHarness(t *testing.T, deck []tile.Tile) harness {
	t.Helper()
	if deck == nil {
		deck = tile.StandardDeck()
	}
	catalog, err := tile.NewCatalog(deck, tile.WithRand(random.New(random.Seed{Hi: 9, Lo: 9})))
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	signer, err := turntoken.NewSigner(turntoken.Config{Secret: []byte("test-secret"), Now: fixedClock(testNow)})
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	store := &createGameStore{fakeStore: newFakeStore(alice, bob, carol)}
	notifier := &fakeNotifier{}
	svc := NewService(store, catalog, signer,
		WithClock(fixedClock(testNow)),
		WithIDGenerator(sequentialIDGenerator()),
		WithNotifier(notifier),
		WithLinkBuilder(BaseURLLinks("https://carcassonne.example.com/")),
	)
	return harness{svc: svc, store: store, notifier: notifier, signer: signer}
}
