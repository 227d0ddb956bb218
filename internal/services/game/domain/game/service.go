package game

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/louisbranch/carcassonne/internal/platform/id"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/board"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/tile"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/turn"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/turntoken"
)

const (
	tracerName = "github.com/louisbranch/carcassonne/internal/services/game/domain/game"

	// TurnSubject is the subject of every turn notification.
	TurnSubject = "Your turn!"
)

// LinkBuilder returns the URL a player follows to play turn token in game.
type LinkBuilder func(gameID, token string) string

// BaseURLLinks builds links of the form <base>/games/<id>?signature=<token>.
func BaseURLLinks(baseURL string) LinkBuilder {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return func(gameID, token string) string {
		query := url.Values{"signature": []string{token}}
		return base + "/games/" + url.PathEscape(gameID) + "?" + query.Encode()
	}
}

// StartGameInput seats players and optionally scripts the opening.
type StartGameInput struct {
	// PlayerIDs in seat order. The first seat places the start tile; the
	// second seat plays first.
	PlayerIDs []string
	Opening   []Placement
}

// CommitTurnInput places a pending turn's tile.
type CommitTurnInput struct {
	TurnID string
	X      int
	Y      int
}

// RegisterPlayerInput describes a new player.
type RegisterPlayerInput struct {
	Username string
	Email    string
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides id.NewID.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithNotifier sets where turn notifications go.
func WithNotifier(notifier Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracer overrides the global tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithLinkBuilder sets how turn links are rendered.
func WithLinkBuilder(links LinkBuilder) Option {
	return func(s *Service) {
		if links != nil {
			s.links = links
		}
	}
}

// Service orchestrates game use-cases.
type Service struct {
	store    Store
	catalog  *tile.Catalog
	signer   *turntoken.Signer
	auth     *turntoken.Authorizer
	notifier Notifier
	links    LinkBuilder
	clock    func() time.Time
	newID    func() (string, error)
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewService constructs game use-cases.
func NewService(store Store, catalog *tile.Catalog, signer *turntoken.Signer, opts ...Option) *Service {
	s := &Service{
		store:   store,
		catalog: catalog,
		signer:  signer,
		links:   BaseURLLinks(""),
		clock:   time.Now,
		newID:   id.NewID,
		logger:  zap.NewNop(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if store != nil && signer != nil {
		s.auth = turntoken.NewAuthorizer(signer, store)
	}
	return s
}

// StartGame seats players, places the start tile for the first seat, and
// deals a pending turn to the second seat.
func (s *Service) StartGame(ctx context.Context, input StartGameInput) (g Game, err error) {
	ctx, span := s.tracer.Start(ctx, "game.StartGame", trace.WithAttributes(
		attribute.Int("game.players", len(input.PlayerIDs)),
		attribute.Int("game.opening", len(input.Opening)),
	))
	defer func() { endSpan(span, err) }()

	if err := s.ready(); err != nil {
		return Game{}, err
	}
	players, err := s.seat(ctx, input.PlayerIDs)
	if err != nil {
		return Game{}, err
	}

	gameID, err := s.newID()
	if err != nil {
		return Game{}, fmt.Errorf("new game id: %w", err)
	}
	span.SetAttributes(attribute.String("game.id", gameID))
	now := s.now()

	turns := make([]turn.Turn, 0, len(input.Opening)+2)
	place := func(tileID int, pos turn.Position) error {
		if _, err := s.catalog.Get(tileID); err != nil {
			return err
		}
		if err := board.CheckPosition(pos); err != nil {
			return err
		}
		if turn.Occupied(turns, pos) {
			return ErrPositionOccupied
		}
		turnID, err := s.newID()
		if err != nil {
			return fmt.Errorf("new turn id: %w", err)
		}
		turns = append(turns, turn.NewPlaced(turnID, gameID, players[0].ID, tileID, pos, now))
		return nil
	}
	if err := place(tile.StartTileID, turn.Position{}); err != nil {
		return Game{}, err
	}
	for _, p := range input.Opening {
		if err := place(p.TileID, turn.Position{X: p.X, Y: p.Y}); err != nil {
			return Game{}, fmt.Errorf("opening %d at (%d, %d): %w", p.TileID, p.X, p.Y, err)
		}
	}

	pending, err := s.deal(gameID, players[1].ID, turns, now)
	if err != nil {
		return Game{}, err
	}
	turns = append(turns, pending)

	token, err := s.signer.Sign([]string{pending.ID})
	if err != nil {
		return Game{}, err
	}

	turn.SortForDisplay(turns)
	g = Game{ID: gameID, CreatedAt: now, Players: players, Turns: turns}
	if err := s.store.CreateGame(ctx, g); err != nil {
		return Game{}, fmt.Errorf("create game: %w", err)
	}

	s.logger.Info("game started",
		zap.String("game_id", gameID),
		zap.Int("players", len(players)),
		zap.String("pending_turn_id", pending.ID),
		zap.Int("tile_id", pending.TileID),
	)
	s.notifyTurn(ctx, players[1], gameID, token)
	return g, nil
}

// CommitTurn places a pending turn at (X, Y). Both coordinates must lie within
// board.MaxCoordinate of the origin. Placement legality beyond range and
// occupancy is not checked, and no next turn is dealt.
func (s *Service) CommitTurn(ctx context.Context, input CommitTurnInput) (t turn.Turn, err error) {
	ctx, span := s.tracer.Start(ctx, "game.CommitTurn", trace.WithAttributes(
		attribute.String("turn.id", input.TurnID),
		attribute.Int("turn.x", input.X),
		attribute.Int("turn.y", input.Y),
	))
	defer func() { endSpan(span, err) }()

	if s == nil || s.store == nil {
		return turn.Turn{}, ErrStoreNotConfigured
	}
	turnID := strings.TrimSpace(input.TurnID)
	if turnID == "" {
		return turn.Turn{}, ErrTurnIDRequired
	}
	pos := turn.Position{X: input.X, Y: input.Y}
	if err := board.CheckPosition(pos); err != nil {
		return turn.Turn{}, err
	}

	current, err := s.store.GetTurn(ctx, turnID)
	if err != nil {
		return turn.Turn{}, err
	}
	if !current.Pending() {
		return turn.Turn{}, ErrTurnNotPending
	}

	t, err = s.store.CommitTurn(ctx, turnID, pos, s.now())
	if err != nil {
		return turn.Turn{}, err
	}
	s.logger.Info("turn committed",
		zap.String("game_id", t.GameID),
		zap.String("turn_id", t.ID),
		zap.String("player_id", t.PlayerID),
		zap.Stringer("position", pos),
	)
	return t, nil
}

// AdvanceTurn deals a pending turn to the player seated after whoever played
// last. The game must not already wait on a pending turn.
func (s *Service) AdvanceTurn(ctx context.Context, gameID string) (t turn.Turn, err error) {
	ctx, span := s.tracer.Start(ctx, "game.AdvanceTurn", trace.WithAttributes(
		attribute.String("game.id", gameID),
	))
	defer func() { endSpan(span, err) }()

	if err := s.ready(); err != nil {
		return turn.Turn{}, err
	}
	g, err := s.GetGame(ctx, gameID)
	if err != nil {
		return turn.Turn{}, err
	}
	if _, ok := g.PendingTurn(); ok {
		return turn.Turn{}, ErrTurnPending
	}

	var lastPlayer string
	if last, ok := turn.LatestPlayed(g.Turns); ok {
		lastPlayer = last.PlayerID
	}
	nextID, ok := turn.NextSeat(g.SeatIDs(), lastPlayer)
	if !ok {
		return turn.Turn{}, ErrInsufficientPlayers
	}
	next, _ := g.Player(nextID)

	t, err = s.deal(g.ID, next.ID, g.Turns, s.now())
	if err != nil {
		return turn.Turn{}, err
	}
	token, err := s.signer.Sign([]string{t.ID})
	if err != nil {
		return turn.Turn{}, err
	}
	if err := s.store.AppendTurn(ctx, t); err != nil {
		return turn.Turn{}, err
	}

	s.logger.Info("turn dealt",
		zap.String("game_id", g.ID),
		zap.String("turn_id", t.ID),
		zap.String("player_id", next.ID),
		zap.Int("tile_id", t.TileID),
	)
	s.notifyTurn(ctx, next, g.ID, token)
	return t, nil
}

// GetGame returns a game with its seats and turns.
func (s *Service) GetGame(ctx context.Context, gameID string) (Game, error) {
	if s == nil || s.store == nil {
		return Game{}, ErrStoreNotConfigured
	}
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return Game{}, ErrGameIDRequired
	}
	g, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return Game{}, err
	}
	turn.SortForDisplay(g.Turns)
	return g, nil
}

// ListGames returns every game.
func (s *Service) ListGames(ctx context.Context) ([]Game, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	return s.store.ListGames(ctx)
}

// ListPlayers returns every registered player.
func (s *Service) ListPlayers(ctx context.Context) ([]Player, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	return s.store.ListPlayers(ctx)
}

// Tiles returns the catalog in id order.
func (s *Service) Tiles() []tile.Tile {
	if s == nil || s.catalog == nil {
		return nil
	}
	return s.catalog.Tiles()
}

// Authorize reports whether token names a pending turn.
func (s *Service) Authorize(ctx context.Context, token string) bool {
	if s == nil {
		return false
	}
	return s.auth.Authorize(ctx, token)
}

// ViewGame projects the board and checks whether token lets its holder play
// this game's pending turn. A bad or missing token only clears
// IsPlayersTurn.
func (s *Service) ViewGame(ctx context.Context, gameID, token string) (v View, err error) {
	ctx, span := s.tracer.Start(ctx, "game.ViewGame", trace.WithAttributes(
		attribute.String("game.id", gameID),
	))
	defer func() { endSpan(span, err) }()

	g, err := s.GetGame(ctx, gameID)
	if err != nil {
		return View{}, err
	}
	rows, err := board.Project(g.Turns)
	if err != nil && !errors.Is(err, board.ErrEmptyBoard) {
		return View{}, err
	}
	v = View{Game: g, Board: rows}

	if strings.TrimSpace(token) == "" {
		return v, nil
	}
	if pending, ok := s.auth.PendingTurn(ctx, token); ok && pending.GameID == g.ID {
		v.IsPlayersTurn = true
		v.PendingTurn = &pending
	}
	span.SetAttributes(attribute.Bool("game.players_turn", v.IsPlayersTurn))
	return v, nil
}

// RegisterPlayer creates a player with a unique username and email.
func (s *Service) RegisterPlayer(ctx context.Context, input RegisterPlayerInput) (Player, error) {
	if s == nil || s.store == nil {
		return Player{}, ErrStoreNotConfigured
	}
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return Player{}, ErrUsernameRequired
	}
	email := strings.TrimSpace(input.Email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return Player{}, ErrEmailInvalid
	}

	playerID, err := s.newID()
	if err != nil {
		return Player{}, fmt.Errorf("new player id: %w", err)
	}
	p := Player{
		ID:        playerID,
		Username:  username,
		Email:     strings.ToLower(email),
		CreatedAt: s.now(),
	}
	if err := s.store.PutPlayer(ctx, p); err != nil {
		if errors.Is(err, ErrConflict) {
			return Player{}, ErrPlayerConflict
		}
		return Player{}, err
	}
	s.logger.Info("player registered", zap.String("player_id", p.ID), zap.String("username", p.Username))
	return p, nil
}

func (s *Service) ready() error {
	switch {
	case s == nil || s.store == nil:
		return ErrStoreNotConfigured
	case s.catalog == nil:
		return ErrCatalogNotConfigured
	case s.signer == nil:
		return ErrSignerNotConfigured
	default:
		return nil
	}
}

func (s *Service) seat(ctx context.Context, playerIDs []string) ([]Player, error) {
	if len(playerIDs) < 2 {
		return nil, ErrInsufficientPlayers
	}
	seen := make(map[string]struct{}, len(playerIDs))
	players := make([]Player, 0, len(playerIDs))
	for _, raw := range playerIDs {
		playerID := strings.TrimSpace(raw)
		if _, dup := seen[playerID]; dup {
			return nil, ErrDuplicatePlayer
		}
		seen[playerID] = struct{}{}
		p, err := s.store.GetPlayer(ctx, playerID)
		if err != nil {
			return nil, fmt.Errorf("seat player %q: %w", playerID, err)
		}
		players = append(players, p)
	}
	return players, nil
}

// deal draws a tile unused in turns and creates a pending turn for playerID.
func (s *Service) deal(gameID, playerID string, turns []turn.Turn, now time.Time) (turn.Turn, error) {
	drawn, err := s.catalog.Random(turn.UsedTileIDs(turns))
	if err != nil {
		return turn.Turn{}, err
	}
	turnID, err := s.newID()
	if err != nil {
		return turn.Turn{}, fmt.Errorf("new turn id: %w", err)
	}
	return turn.NewPending(turnID, gameID, playerID, drawn.ID, now), nil
}

func (s *Service) notifyTurn(ctx context.Context, player Player, gameID, token string) {
	if s.notifier == nil {
		return
	}
	link := s.links(gameID, token)
	body := fmt.Sprintf("It is your turn, %s. Place your tile: %s", player.Username, link)
	if err := s.notifier.Send(ctx, player, TurnSubject, body); err != nil {
		s.logger.Warn("turn notification failed",
			zap.String("game_id", gameID),
			zap.String("player_id", player.ID),
			zap.Error(err),
		)
		trace.SpanFromContext(ctx).AddEvent("notification failed")
	}
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
