package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"cinematch/internal/logging"
	"cinematch/internal/services"
)

// Driver names accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultDirectorRoleID is the movie_crew role id used for directors.
const DefaultDirectorRoleID = 2

// Options configures a Store.
type Options struct {
	Driver         string
	URL            string
	MaxOpenConns   int
	DirectorRoleID int64
	Logger         *slog.Logger
}

// Store is the local catalog over database/sql.
type Store struct {
	db             *sql.DB
	driver         string
	directorRoleID int64
	logger         *slog.Logger
}

// Open connects to the local catalog. SQLite databases get pragmas and the
// embedded schema; Postgres connections are only pinged.
func Open(ctx context.Context, opts Options) (*Store, error) {
	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	if strings.TrimSpace(opts.URL) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "store", "open", "database url is empty", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Store{
		driver:         driver,
		directorRoleID: opts.DirectorRoleID,
		logger:         logging.NewComponentLogger(logger, "store"),
	}
	if s.directorRoleID <= 0 {
		s.directorRoleID = DefaultDirectorRoleID
	}

	var err error
	switch driver {
	case DriverPostgres:
		s.db, err = sql.Open("pgx", opts.URL)
	case DriverSQLite:
		s.db, err = sql.Open("sqlite", opts.URL)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "store", "open", fmt.Sprintf("unsupported driver %q", opts.Driver), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}
	if opts.MaxOpenConns > 0 {
		s.db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	s.db.SetConnMaxLifetime(30 * time.Minute)

	if driver == DriverSQLite {
		// One connection keeps in-memory databases and pragmas consistent.
		s.db.SetMaxOpenConns(1)
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA foreign_keys = ON",
			"PRAGMA busy_timeout = 5000",
		}
		for _, pragma := range pragmas {
			if _, execErr := s.db.ExecContext(ctx, pragma); execErr != nil {
				_ = s.db.Close()
				return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
			}
		}
		if err := s.initSchema(ctx); err != nil {
			_ = s.db.Close()
			return nil, err
		}
	}

	if err := s.Ping(ctx); err != nil {
		_ = s.db.Close()
		return nil, err
	}
	s.logger.Debug("local store opened", logging.String("driver", driver))
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return services.Wrap(services.ErrExternalTool, "store", "ping", s.driver, err)
	}
	return nil
}

// Driver returns the configured driver name.
func (s *Store) Driver() string {
	return s.driver
}

// DB exposes the connection for tests and seeding.
func (s *Store) DB() *sql.DB {
	return s.db
}

// rebind rewrites "?" placeholders to "$n" for Postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Page selects a window of unmatched records.
type Page struct {
	Limit  int
	Offset int
	// MinMovies filters people by credited film count.
	MinMovies int
}

func (s *Store) pageClause(p Page) (string, []any) {
	var parts []string
	var args []any
	if p.Limit > 0 {
		parts = append(parts, "LIMIT ?")
		args = append(args, p.Limit)
	} else if p.Offset > 0 && s.driver == DriverSQLite {
		// SQLite requires LIMIT before OFFSET.
		parts = append(parts, "LIMIT -1")
	}
	if p.Offset > 0 {
		parts = append(parts, "OFFSET ?")
		args = append(args, p.Offset)
	}
	return strings.Join(parts, " "), args
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableInt64(value int64) any {
	if value <= 0 {
		return nil
	}
	return value
}
