package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/carcassonne/internal/platform/logging"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/game"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/tile"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/turntoken"
	gamesqlite "github.com/louisbranch/carcassonne/internal/services/game/storage/sqlite"
	notifications "github.com/louisbranch/carcassonne/internal/services/notifications/app"
	"go.uber.org/zap"
)

// Config wires the game runtime.
type Config struct {
	DBPath        string
	BaseURL       string
	TurnToken     turntoken.Config
	Notifications notifications.Config
	// CatalogOptions customize the draw catalog, e.g. a seeded source.
	CatalogOptions []tile.CatalogOption
}

// Runtime owns the stores behind one command invocation.
type Runtime struct {
	config Config
	store  *gamesqlite.Store
	outbox *notifications.Outbox
	logger *zap.Logger
	clock  func() time.Time
}

// Open opens the game and notification stores.
func Open(cfg Config, logger *zap.Logger, outboxOpts ...notifications.Option) (*Runtime, error) {
	logger = logging.OrNop(logger)
	store, err := gamesqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open game store: %w", err)
	}
	outbox, err := notifications.Open(cfg.Notifications, logger.Named("notifications"), outboxOpts...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &Runtime{
		config: cfg,
		store:  store,
		outbox: outbox,
		logger: logger,
		clock:  time.Now,
	}, nil
}

// Close releases both stores.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	return errors.Join(r.outbox.Close(), r.store.Close())
}

// Outbox returns the notification outbox.
func (r *Runtime) Outbox() *notifications.Outbox {
	return r.outbox
}

// Seed writes the standard deck and default players.
func (r *Runtime) Seed(ctx context.Context) (SeedReport, error) {
	report, err := Seeder{Store: r.store, Clock: r.clock}.Seed(ctx)
	if err != nil {
		return report, err
	}
	r.logger.Info("database seeded",
		zap.Int("tiles", report.Tiles),
		zap.Int("players_created", report.PlayersCreated),
		zap.Int("players_kept", report.PlayersKept),
	)
	return report, nil
}

// Service builds the game service. An unseeded catalog or a missing token
// secret leaves the dependent operations unconfigured rather than failing,
// so player management works on a fresh database.
func (r *Runtime) Service(ctx context.Context, opts ...game.Option) (*game.Service, error) {
	catalog, err := LoadCatalog(ctx, r.store, r.config.CatalogOptions...)
	if err != nil && !errors.Is(err, ErrCatalogEmpty) {
		return nil, err
	}

	var signer *turntoken.Signer
	if len(r.config.TurnToken.Secret) > 0 {
		signer, err = turntoken.NewSigner(r.config.TurnToken)
		if err != nil {
			return nil, fmt.Errorf("turn token signer: %w", err)
		}
	}

	base := []game.Option{
		game.WithClock(r.clock),
		game.WithLogger(r.logger.Named("game")),
		game.WithNotifier(outboxNotifier{outbox: r.outbox}),
		game.WithLinkBuilder(game.BaseURLLinks(r.config.BaseURL)),
	}
	return game.NewService(newDomainStoreAdapter(r.store), catalog, signer, append(base, opts...)...), nil
}
