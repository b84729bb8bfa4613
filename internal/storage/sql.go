package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	logx "promobot/pkg/logx"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// goose keeps dialect and base FS in package globals.
var gooseMu sync.Mutex

const (
	keyHeaderText      = "header_text"
	keyHeaderMediaID   = "header_media_id"
	keyHeaderMediaKind = "header_media_kind"
	keyAdminID         = "admin_id"
)

// sqlStore implements Store for sqlite and postgres. Queries are written
// with '?' placeholders and rebound for postgres.
type sqlStore struct {
	db       *sql.DB
	log      logx.Logger
	postgres bool
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = time.Second
	}
	for _, p := range []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(p); err != nil {
			log.Debug("sqlite pragma failed", logx.String("pragma", p), logx.Err(err))
		}
	}
	st := &sqlStore{db: db, log: log}
	if err := st.migrate(context.Background(), "sqlite3", "migrations/sqlite"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func openPostgres(cfg Config, log logx.Logger) (Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	st := &sqlStore{db: db, log: log, postgres: true}
	if err := st.migrate(ctx, "postgres", "migrations/postgres"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqlStore) migrate(ctx context.Context, dialect, dir string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{log: s.log})
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, s.db, dir); err != nil {
		return fmt.Errorf("migrate %s: %w", dialect, err)
	}
	return nil
}

// gooseLogger routes goose output to logx at debug level.
type gooseLogger struct{ log logx.Logger }

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// rebind turns '?' placeholders into $1..$n for postgres.
func (s *sqlStore) rebind(q string) string {
	if !s.postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) Load(ctx context.Context) (Snapshot, error) {
	snap := Default()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, kind, link, members, registered_at FROM chats`)
	if err != nil {
		return Snapshot{}, err
	}
	for rows.Next() {
		var c Chat
		var at string
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind, &c.Link, &c.Members, &at); err != nil {
			_ = rows.Close()
			return Snapshot{}, err
		}
		if at != "" {
			if t, err := time.Parse(time.RFC3339Nano, at); err == nil {
				c.RegisteredAt = t
			}
		}
		snap.Chats[c.ID] = c
	}
	if err := rows.Close(); err != nil {
		return Snapshot{}, err
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT admin_id, times, active FROM schedules`)
	if err != nil {
		return Snapshot{}, err
	}
	for rows.Next() {
		var id int64
		var times string
		var sc Schedule
		if err := rows.Scan(&id, &times, &sc.Active); err != nil {
			_ = rows.Close()
			return Snapshot{}, err
		}
		if err := json.Unmarshal([]byte(times), &sc.Times); err != nil {
			_ = rows.Close()
			return Snapshot{}, fmt.Errorf("schedule %d: %w", id, err)
		}
		snap.Schedules[id] = sc
	}
	if err := rows.Close(); err != nil {
		return Snapshot{}, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return Snapshot{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return Snapshot{}, err
		}
		switch k {
		case keyHeaderText:
			snap.HeaderText = v
		case keyHeaderMediaID:
			snap.HeaderMediaID = v
		case keyHeaderMediaKind:
			snap.HeaderMediaKind = v
		case keyAdminID:
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return Snapshot{}, fmt.Errorf("admin_id %q: %w", v, err)
			}
			snap.AdminID = id
		}
	}
	return snap, rows.Err()
}

// Save rewrites every table inside one transaction.
func (s *sqlStore) Save(ctx context.Context, snap Snapshot) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, q := range []string{`DELETE FROM chats`, `DELETE FROM schedules`, `DELETE FROM settings`} {
		if _, err = tx.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	insChat := s.rebind(`INSERT INTO chats(id, name, kind, link, members, registered_at) VALUES(?,?,?,?,?,?)`)
	for _, c := range snap.Chats {
		at := ""
		if !c.RegisteredAt.IsZero() {
			at = c.RegisteredAt.UTC().Format(time.RFC3339Nano)
		}
		if _, err = tx.ExecContext(ctx, insChat, c.ID, c.Name, c.Kind, c.Link, c.Members, at); err != nil {
			return fmt.Errorf("insert chat %d: %w", c.ID, err)
		}
	}
	insSched := s.rebind(`INSERT INTO schedules(admin_id, times, active) VALUES(?,?,?)`)
	for id, sc := range snap.Schedules {
		times := sc.Times
		if times == nil {
			times = []string{}
		}
		b, mErr := json.Marshal(times)
		if mErr != nil {
			return mErr
		}
		if _, err = tx.ExecContext(ctx, insSched, id, string(b), sc.Active); err != nil {
			return fmt.Errorf("insert schedule %d: %w", id, err)
		}
	}
	settings := map[string]string{keyHeaderText: snap.HeaderText}
	if snap.HeaderMediaID != "" {
		settings[keyHeaderMediaID] = snap.HeaderMediaID
		settings[keyHeaderMediaKind] = snap.HeaderMediaKind
	}
	if snap.AdminID != 0 {
		settings[keyAdminID] = strconv.FormatInt(snap.AdminID, 10)
	}
	insSetting := s.rebind(`INSERT INTO settings(key, value) VALUES(?,?)`)
	for k, v := range settings {
		if _, err = tx.ExecContext(ctx, insSetting, k, v); err != nil {
			return fmt.Errorf("insert setting %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func (s *sqlStore) AppendAudit(ctx context.Context, e AuditEntry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO audit(at, actor_id, action, target, ok, fail, err, took_ms) VALUES(?,?,?,?,?,?,?,?)`),
		e.At.UTC(), e.ActorID, e.Action, e.Target, e.OK, e.Fail, nullStr(e.Error), e.TookMS,
	)
	return err
}

func (s *sqlStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
