package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/carcassonne/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/carcassonne/internal/services/game/storage"
	"github.com/louisbranch/carcassonne/internal/services/game/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// SQLite names the indexed columns, not the index, in unique violations.
const (
	pendingTurnColumns  = "turns.game_id"
	turnPositionColumns = "turns.game_id, turns.x, turns.y"
)

// Store provides SQLite-backed persistence for games.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.Store = (*Store)(nil)

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner func(dest ...any) error

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func toNullMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

func fromNullMillis(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromMillis(value.Int64)
	return &t
}

func toNullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func fromNullInt(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}

// Open opens a game SQLite store at the provided path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := ensureForeignKeysEnabled(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func ensureForeignKeysEnabled(db *sql.DB) error {
	var enabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		return fmt.Errorf("check sqlite foreign key pragma: %w", err)
	}
	if enabled != 1 {
		return fmt.Errorf("sqlite foreign keys are disabled")
	}
	return nil
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// PutPlayer inserts one player. Username and email must be unused.
func (s *Store) PutPlayer(ctx context.Context, record storage.PlayerRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	record, err := normalizePlayerRecord(record)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx, `
	INSERT INTO players (id, username, email, created_at) VALUES (?, ?, ?, ?)
	`,
		record.ID,
		record.Username,
		record.Email,
		toMillis(record.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put player: %w", err)
	}
	return nil
}

// GetPlayer loads one player by id.
func (s *Store) GetPlayer(ctx context.Context, playerID string) (storage.PlayerRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.PlayerRecord{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
	SELECT id, username, email, created_at FROM players WHERE id = ?
	`, strings.TrimSpace(playerID))
	return scanPlayerRow(row.Scan)
}

// GetPlayerByUsername loads one player by username.
func (s *Store) GetPlayerByUsername(ctx context.Context, username string) (storage.PlayerRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.PlayerRecord{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
	SELECT id, username, email, created_at FROM players WHERE username = ?
	`, strings.TrimSpace(username))
	return scanPlayerRow(row.Scan)
}

// ListPlayers lists players in registration order.
func (s *Store) ListPlayers(ctx context.Context) ([]storage.PlayerRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
	SELECT id, username, email, created_at FROM players ORDER BY created_at, username
	`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var out []storage.PlayerRecord
	for rows.Next() {
		record, err := scanPlayer(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan player row: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate player rows: %w", err)
	}
	return out, nil
}

// PutTiles upserts catalog tiles in one transaction.
func (s *Store) PutTiles(ctx context.Context, records []storage.TileRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put tiles: %w", err)
	}
	for _, record := range records {
		if err := putTileExec(ctx, tx, record); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put tiles: %w", err)
	}
	return nil
}

// ListTiles lists catalog tiles by id.
func (s *Store) ListTiles(ctx context.Context) ([]storage.TileRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
	SELECT id, path, side_north, side_east, side_south, side_west, special FROM tiles ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list tiles: %w", err)
	}
	defer rows.Close()

	var out []storage.TileRecord
	for rows.Next() {
		var record storage.TileRecord
		if err := rows.Scan(
			&record.ID,
			&record.Path,
			&record.Sides[0],
			&record.Sides[1],
			&record.Sides[2],
			&record.Sides[3],
			&record.Special,
		); err != nil {
			return nil, fmt.Errorf("scan tile row: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tile rows: %w", err)
	}
	return out, nil
}

// CreateGame writes a game, its seats, and its opening turns atomically.
func (s *Store) CreateGame(ctx context.Context, game storage.GameRecord, turns []storage.TurnRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	game, err := normalizeGameRecord(game)
	if err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create game: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO games (id, created_at) VALUES (?, ?)",
		game.ID,
		toMillis(game.CreatedAt),
	); err != nil {
		_ = tx.Rollback()
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("insert game: %w", err)
	}
	for seat, playerID := range game.PlayerIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO game_players (game_id, player_id, seat) VALUES (?, ?, ?)",
			game.ID,
			playerID,
			seat,
		); err != nil {
			_ = tx.Rollback()
			if isUniqueConstraintError(err) {
				return storage.ErrConflict
			}
			if isForeignKeyConstraintError(err) {
				return storage.ErrNotFound
			}
			return fmt.Errorf("insert game seat %d: %w", seat, err)
		}
	}
	for _, record := range turns {
		record.GameID = game.ID
		if err := insertTurnExec(ctx, tx, record); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create game: %w", err)
	}
	return nil
}

// GetGame loads a game and its seat order.
func (s *Store) GetGame(ctx context.Context, gameID string) (storage.GameRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.GameRecord{}, err
	}
	var record storage.GameRecord
	var createdAt int64
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT id, created_at FROM games WHERE id = ?",
		strings.TrimSpace(gameID),
	).Scan(&record.ID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.GameRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.GameRecord{}, fmt.Errorf("get game: %w", err)
	}
	record.CreatedAt = fromMillis(createdAt)
	record.PlayerIDs, err = s.seats(ctx, record.ID)
	if err != nil {
		return storage.GameRecord{}, err
	}
	return record, nil
}

// ListGames lists games newest first.
func (s *Store) ListGames(ctx context.Context) ([]storage.GameRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, "SELECT id, created_at FROM games ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	var out []storage.GameRecord
	for rows.Next() {
		var record storage.GameRecord
		var createdAt int64
		if err := rows.Scan(&record.ID, &createdAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan game row: %w", err)
		}
		record.CreatedAt = fromMillis(createdAt)
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate game rows: %w", err)
	}
	_ = rows.Close()

	for i := range out {
		out[i].PlayerIDs, err = s.seats(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) seats(ctx context.Context, gameID string) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT player_id FROM game_players WHERE game_id = ? ORDER BY seat",
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list game seats: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var playerID string
		if err := rows.Scan(&playerID); err != nil {
			return nil, fmt.Errorf("scan game seat: %w", err)
		}
		ids = append(ids, playerID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate game seats: %w", err)
	}
	return ids, nil
}

const turnColumns = "id, game_id, tile_id, player_id, x, y, created_at, played_at"

// GetTurn loads one turn by id.
func (s *Store) GetTurn(ctx context.Context, turnID string) (storage.TurnRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.TurnRecord{}, err
	}
	return s.getTurn(ctx, strings.TrimSpace(turnID))
}

func (s *Store) getTurn(ctx context.Context, turnID string) (storage.TurnRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, "SELECT "+turnColumns+" FROM turns WHERE id = ?", turnID)
	record, err := scanTurn(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.TurnRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.TurnRecord{}, fmt.Errorf("get turn: %w", err)
	}
	return record, nil
}

// ListTurnsByGame lists a game's turns by (x, y) with pending turns last.
func (s *Store) ListTurnsByGame(ctx context.Context, gameID string) ([]storage.TurnRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
	SELECT `+turnColumns+` FROM turns
	WHERE game_id = ?
	ORDER BY played_at IS NULL, x, y, created_at, id
	`, strings.TrimSpace(gameID))
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var out []storage.TurnRecord
	for rows.Next() {
		record, err := scanTurn(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turn rows: %w", err)
	}
	return out, nil
}

// AppendTurn inserts one turn into an existing game.
func (s *Store) AppendTurn(ctx context.Context, record storage.TurnRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return insertTurnExec(ctx, s.sqlDB, record)
}

// CommitTurn places a pending turn with a conditional update.
func (s *Store) CommitTurn(ctx context.Context, turnID string, x, y int, playedAt time.Time) (storage.TurnRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.TurnRecord{}, err
	}
	turnID = strings.TrimSpace(turnID)
	if turnID == "" {
		return storage.TurnRecord{}, fmt.Errorf("turn id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
	UPDATE turns SET x = ?, y = ?, played_at = ?
	WHERE id = ? AND played_at IS NULL
	`, x, y, toMillis(playedAt), turnID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.TurnRecord{}, storage.ErrPositionTaken
		}
		return storage.TurnRecord{}, fmt.Errorf("commit turn: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.TurnRecord{}, fmt.Errorf("commit turn rows affected: %w", err)
	}

	record, err := s.getTurn(ctx, turnID)
	if err != nil {
		return storage.TurnRecord{}, err
	}
	if affected == 0 {
		return storage.TurnRecord{}, storage.ErrTurnPlayed
	}
	return record, nil
}

func putTileExec(ctx context.Context, execer sqlExecer, record storage.TileRecord) error {
	_, err := execer.ExecContext(ctx, `
	INSERT INTO tiles (id, path, side_north, side_east, side_south, side_west, special)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		path = excluded.path,
		side_north = excluded.side_north,
		side_east = excluded.side_east,
		side_south = excluded.side_south,
		side_west = excluded.side_west,
		special = excluded.special
	`,
		record.ID,
		strings.TrimSpace(record.Path),
		record.Sides[0],
		record.Sides[1],
		record.Sides[2],
		record.Sides[3],
		record.Special,
	)
	if err != nil {
		return fmt.Errorf("put tile %d: %w", record.ID, err)
	}
	return nil
}

func insertTurnExec(ctx context.Context, execer sqlExecer, record storage.TurnRecord) error {
	record, err := normalizeTurnRecord(record)
	if err != nil {
		return err
	}
	_, err = execer.ExecContext(ctx, `
	INSERT INTO turns (`+turnColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.GameID,
		record.TileID,
		record.PlayerID,
		toNullInt(record.X),
		toNullInt(record.Y),
		toMillis(record.CreatedAt),
		toNullMillis(record.PlayedAt),
	)
	if err != nil {
		return mapTurnWriteError(err)
	}
	return nil
}

func mapTurnWriteError(err error) error {
	switch {
	case isIndexViolation(err, turnPositionColumns):
		return storage.ErrPositionTaken
	case isIndexViolation(err, pendingTurnColumns):
		return storage.ErrPendingTurnExists
	case isUniqueConstraintError(err):
		return storage.ErrConflict
	case isForeignKeyConstraintError(err):
		return storage.ErrNotFound
	default:
		return fmt.Errorf("insert turn: %w", err)
	}
}

func normalizePlayerRecord(record storage.PlayerRecord) (storage.PlayerRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.Username = strings.TrimSpace(record.Username)
	record.Email = strings.ToLower(strings.TrimSpace(record.Email))
	if record.ID == "" {
		return storage.PlayerRecord{}, fmt.Errorf("player id is required")
	}
	if record.Username == "" {
		return storage.PlayerRecord{}, fmt.Errorf("username is required")
	}
	if record.Email == "" {
		return storage.PlayerRecord{}, fmt.Errorf("email is required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	return record, nil
}

func normalizeGameRecord(record storage.GameRecord) (storage.GameRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	if record.ID == "" {
		return storage.GameRecord{}, fmt.Errorf("game id is required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	return record, nil
}

func normalizeTurnRecord(record storage.TurnRecord) (storage.TurnRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.GameID = strings.TrimSpace(record.GameID)
	record.PlayerID = strings.TrimSpace(record.PlayerID)
	switch {
	case record.ID == "":
		return storage.TurnRecord{}, fmt.Errorf("turn id is required")
	case record.GameID == "":
		return storage.TurnRecord{}, fmt.Errorf("turn game id is required")
	case record.PlayerID == "":
		return storage.TurnRecord{}, fmt.Errorf("turn player id is required")
	case (record.PlayedAt == nil) != (record.X == nil || record.Y == nil):
		return storage.TurnRecord{}, fmt.Errorf("turn %s must have both a position and a played time, or neither", record.ID)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	return record, nil
}

func scanPlayerRow(scan scanner) (storage.PlayerRecord, error) {
	record, err := scanPlayer(scan)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.PlayerRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.PlayerRecord{}, fmt.Errorf("get player: %w", err)
	}
	return record, nil
}

func scanPlayer(scan scanner) (storage.PlayerRecord, error) {
	var record storage.PlayerRecord
	var createdAt int64
	if err := scan(&record.ID, &record.Username, &record.Email, &createdAt); err != nil {
		return storage.PlayerRecord{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	return record, nil
}

func scanTurn(scan scanner) (storage.TurnRecord, error) {
	var record storage.TurnRecord
	var x, y sql.NullInt64
	var createdAt int64
	var playedAt sql.NullInt64
	if err := scan(
		&record.ID,
		&record.GameID,
		&record.TileID,
		&record.PlayerID,
		&x,
		&y,
		&createdAt,
		&playedAt,
	); err != nil {
		return storage.TurnRecord{}, err
	}
	record.X = fromNullInt(x)
	record.Y = fromNullInt(y)
	record.CreatedAt = fromMillis(createdAt)
	record.PlayedAt = fromNullMillis(playedAt)
	return record, nil
}

func isIndexViolation(err error, columns string) bool {
	if !isUniqueConstraintError(err) {
		return false
	}
	msg := err.Error()
	idx := strings.Index(msg, columns)
	if idx < 0 {
		return false
	}
	rest := msg[idx+len(columns):]
	return rest == "" || !strings.HasPrefix(rest, ",")
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "unique constraint failed")
}

func isForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "foreign key constraint failed")
}
