// Package carcassonne parses command flags and runs one game administration
// command against the local stores.
package carcassonne

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	entrypoint "github.com/louisbranch/carcassonne/internal/platform/cmd"
	apperrors "github.com/louisbranch/carcassonne/internal/platform/errors"
	"github.com/louisbranch/carcassonne/internal/platform/logging"
	server "github.com/louisbranch/carcassonne/internal/services/game/app"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/game"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/turntoken"
	notifications "github.com/louisbranch/carcassonne/internal/services/notifications/app"
)

// ErrUsage indicates a missing or malformed command.
var ErrUsage = errors.New("usage")

const usage = `usage: carcassonne [flags] <command> [args]

commands:
  initdb                     seed the tile deck and default players
  register <username> <email>
  players                    list registered players
  tiles                      list the tile catalog
  games                      list games
  start [-demo] [player...]  start a game with players by id or username,
                             seating everyone when none are named
  show [-token t] <game>     print the board
  commit <turn> <x> <y>      place a pending turn's tile
  advance <game>             deal the next turn
  inbox <player>             list a player's notifications
  deliver                    send due notification emails`

// Config holds carcassonne command configuration.
type Config struct {
	DBPath              string        `env:"CARCASSONNE_DB_PATH" envDefault:"carcassonne.db"`
	NotificationsDBPath string        `env:"CARCASSONNE_NOTIFICATIONS_DB_PATH" envDefault:"notifications.db"`
	TurnTokenSecret     string        `env:"CARCASSONNE_TURN_TOKEN_SECRET"`
	TurnTokenTTL        time.Duration `env:"CARCASSONNE_TURN_TOKEN_TTL" envDefault:"0s"`
	BaseURL             string        `env:"CARCASSONNE_BASE_URL" envDefault:"http://localhost:8080"`
	MailSender          string        `env:"CARCASSONNE_MAIL_SENDER" envDefault:"carcassonne@example.com"`
	EmailEnabled        bool          `env:"CARCASSONNE_EMAIL_ENABLED" envDefault:"true"`
	Locale              string        `env:"CARCASSONNE_NOTIFICATIONS_LOCALE" envDefault:"en-US"`
	LogLevel            string        `env:"CARCASSONNE_LOG_LEVEL" envDefault:"info"`
	LogFormat           string        `env:"CARCASSONNE_LOG_FORMAT" envDefault:"console"`

	// Args is the command followed by its arguments.
	Args []string
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the game SQLite database")
	fs.StringVar(&cfg.NotificationsDBPath, "notifications-db", cfg.NotificationsDBPath, "Path to the notifications SQLite database")
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Base URL used in turn links")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (json, console)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.TurnTokenTTL < 0 {
		return Config{}, fmt.Errorf("CARCASSONNE_TURN_TOKEN_TTL must not be negative")
	}
	cfg.Args = fs.Args()
	return cfg, nil
}

// Run executes the configured command, writing results to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if len(cfg.Args) == 0 {
		return fmt.Errorf("%w: command is required\n%s", ErrUsage, usage)
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceCarcassonne, func(ctx context.Context) error {
		logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		return execute(ctx, cfg, out, logger)
	})
}

func runtimeConfig(cfg Config) server.Config {
	secret := strings.TrimSpace(cfg.TurnTokenSecret)
	var tokenCfg turntoken.Config
	if secret != "" {
		tokenCfg = turntoken.Config{Secret: []byte(secret), TTL: cfg.TurnTokenTTL}
	}
	return server.Config{
		DBPath:    cfg.DBPath,
		BaseURL:   cfg.BaseURL,
		TurnToken: tokenCfg,
		Notifications: notifications.Config{
			DBPath:       cfg.NotificationsDBPath,
			Locale:       cfg.Locale,
			Sender:       cfg.MailSender,
			EmailEnabled: cfg.EmailEnabled,
		},
	}
}

func execute(ctx context.Context, cfg Config, out io.Writer, logger *zap.Logger, outboxOpts ...notifications.Option) error {
	name, args := cfg.Args[0], cfg.Args[1:]
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q\n%s", ErrUsage, name, usage)
	}

	rt, err := server.Open(runtimeConfig(cfg), logger, outboxOpts...)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			logger.Warn("close stores", zap.Error(closeErr))
		}
	}()

	return cmd(ctx, env{rt: rt, out: out, logger: logger}, args)
}

// env is what a single command runs against.
type env struct {
	rt     *server.Runtime
	out    io.Writer
	logger *zap.Logger
}

func (e env) service(ctx context.Context) (*game.Service, error) {
	return e.rt.Service(ctx)
}

type command func(ctx context.Context, e env, args []string) error

var commands map[string]command

func init() {
	commands = map[string]command{
		"initdb":   runInitDB,
		"register": runRegister,
		"players":  runPlayers,
		"tiles":    runTiles,
		"games":    runGames,
		"start":    runStart,
		"show":     runShow,
		"commit":   runCommit,
		"advance":  runAdvance,
		"inbox":    runInbox,
		"deliver":  runDeliver,
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

func parseInt(name, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, usageErr("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}

// Describe renders err for a terminal, prefixing domain errors with their
// kind.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrUsage) {
		return err.Error()
	}
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		return err.Error()
	}
	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		return "not found: " + err.Error()
	case apperrors.KindInvalidArgument:
		return "invalid argument: " + err.Error()
	case apperrors.KindFailedPrecondition:
		return "failed precondition: " + err.Error()
	case apperrors.KindAlreadyExists:
		return "already exists: " + err.Error()
	default:
		return err.Error()
	}
}

// ExitCode maps err to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, ErrUsage) {
		return 2
	}
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		return 1
	}
	switch apperrors.KindOf(err) {
	case apperrors.KindInvalidArgument:
		return 3
	case apperrors.KindNotFound:
		return 4
	case apperrors.KindFailedPrecondition:
		return 5
	case apperrors.KindAlreadyExists:
		return 6
	default:
		return 1
	}
}
