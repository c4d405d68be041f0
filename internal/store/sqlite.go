package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/asmeev28-png/daysbot/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// ---- chat whitelist ----

func (r *SQLiteRepo) AddChat(ctx context.Context, chatID int64, title string, addedBy int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO allowed_chats (chat_id, title, added_by, added_at, is_active)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(chat_id) DO UPDATE SET
			title     = excluded.title,
			is_active = 1`,
		chatID, title, addedBy, time.Now().UTC().Unix(),
	)
	return err
}

// RemoveChat deletes the chat and, with it, the chat's birthdays and events.
func (r *SQLiteRepo) RemoveChat(ctx context.Context, chatID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Events go via the FK cascade; birthdays carry no FK and are deleted explicitly.
	if _, err := tx.ExecContext(ctx, `DELETE FROM birthdays WHERE chat_id = ?`, chatID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM allowed_chats WHERE chat_id = ?`, chatID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRepo) IsChatAllowed(ctx context.Context, chatID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM allowed_chats WHERE chat_id = ? AND is_active = 1`, chatID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *SQLiteRepo) ListChats(ctx context.Context) ([]domain.AllowedChat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT chat_id, title, added_by, added_at, is_active
		FROM allowed_chats
		WHERE is_active = 1
		ORDER BY added_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.AllowedChat
	for rows.Next() {
		var (
			c       domain.AllowedChat
			addedAt int64
			active  int
		)
		if err := rows.Scan(&c.ChatID, &c.Title, &c.AddedBy, &addedAt, &active); err != nil {
			return nil, err
		}
		c.AddedAt = time.Unix(addedAt, 0).UTC()
		c.IsActive = active != 0
		res = append(res, c)
	}
	return res, rows.Err()
}

// ---- birthdays ----

const birthdayColumns = `id, user_id, chat_id, day, month, year, username, full_name, created_by, created_at, updated_at`

func scanBirthday(s interface{ Scan(...any) error }) (domain.Birthday, error) {
	var (
		b         domain.Birthday
		yearNS    sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	err := s.Scan(&b.ID, &b.UserID, &b.ChatID, &b.Day, &b.Month, &yearNS,
		&b.Username, &b.FullName, &b.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return b, err
	}
	b.Year = yearFromNull(yearNS)
	b.CreatedAt = time.Unix(createdAt, 0).UTC()
	b.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return b, nil
}

// UpsertBirthday inserts or replaces the record keyed by (user_id, chat_id).
// The stored year is always overwritten, including the nil case.
func (r *SQLiteRepo) UpsertBirthday(ctx context.Context, b *domain.Birthday) error {
	if b == nil {
		return errors.New("nil birthday")
	}
	now := time.Now().UTC().Unix()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO birthdays (user_id, chat_id, day, month, year, username, full_name, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, chat_id) DO UPDATE SET
			day        = excluded.day,
			month      = excluded.month,
			year       = excluded.year,
			username   = excluded.username,
			full_name  = excluded.full_name,
			updated_at = excluded.updated_at`,
		b.UserID, b.ChatID, b.Day, b.Month, yearToNull(b.Year),
		b.Username, b.FullName, b.CreatedBy, now, now,
	)
	return err
}

func (r *SQLiteRepo) GetBirthday(ctx context.Context, userID, chatID int64) (*domain.Birthday, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+birthdayColumns+` FROM birthdays WHERE user_id = ? AND chat_id = ?`,
		userID, chatID,
	)
	b, err := scanBirthday(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *SQLiteRepo) DeleteBirthday(ctx context.Context, userID, chatID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM birthdays WHERE user_id = ? AND chat_id = ?`, userID, chatID)
	return err
}

func (r *SQLiteRepo) ListBirthdaysByChat(ctx context.Context, chatID int64) ([]domain.Birthday, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+birthdayColumns+` FROM birthdays WHERE chat_id = ? ORDER BY month, day`, chatID)
	if err != nil {
		return nil, err
	}
	return collectBirthdays(rows)
}

func (r *SQLiteRepo) CountBirthdaysByChat(ctx context.Context, chatID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM birthdays WHERE chat_id = ?`, chatID).Scan(&n)
	return n, err
}

// ListBirthdaysByDate matches records on (day, month); with includeLeapDay it
// additionally matches February 29 records, for the Feb-28 carry-forward in
// non-leap years.
func (r *SQLiteRepo) ListBirthdaysByDate(ctx context.Context, day, month int, includeLeapDay bool) ([]domain.Birthday, error) {
	query := `SELECT ` + birthdayColumns + ` FROM birthdays WHERE month = ? AND day = ?`
	args := []any{month, day}
	if includeLeapDay {
		query = `SELECT ` + birthdayColumns + ` FROM birthdays
			WHERE (month = ? AND day = ?) OR (month = 2 AND day = 29)`
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectBirthdays(rows)
}

func collectBirthdays(rows *sql.Rows) ([]domain.Birthday, error) {
	defer rows.Close()
	var res []domain.Birthday
	for rows.Next() {
		b, err := scanBirthday(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

// ---- congratulation pool ----

// ReplaceCongratulations wipes the pool and inserts up to max non-blank texts.
func (r *SQLiteRepo) ReplaceCongratulations(ctx context.Context, texts []string, addedBy int64, max int) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM congratulations`); err != nil {
		return 0, err
	}
	now := time.Now().UTC().Unix()
	count := 0
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if count >= max {
			break
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO congratulations (text, used_count, added_by, added_at) VALUES (?, 0, ?, ?)`,
			text, addedBy, now); err != nil {
			return 0, err
		}
		count++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// RandomCongratulation picks one entry at random and increments its usage
// counter in the same transaction. Returns ErrNotFound on an empty pool.
func (r *SQLiteRepo) RandomCongratulation(ctx context.Context) (*domain.Congratulation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var c domain.Congratulation
	err = tx.QueryRowContext(ctx,
		`SELECT id, text, used_count FROM congratulations ORDER BY RANDOM() LIMIT 1`,
	).Scan(&c.ID, &c.Text, &c.UsedCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE congratulations SET used_count = used_count + 1 WHERE id = ?`, c.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	c.UsedCount++
	return &c, nil
}

func (r *SQLiteRepo) countCongratulations(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM congratulations`).Scan(&n)
	return n, err
}

// ---- events ----

const eventColumns = `id, chat_id, name, day, month, year, message, media_kind, media_id, is_active, created_by, created_at`

func scanEvent(s interface{ Scan(...any) error }) (domain.Event, error) {
	var (
		e         domain.Event
		yearNS    sql.NullInt64
		kind      string
		active    int
		createdAt int64
	)
	err := s.Scan(&e.ID, &e.ChatID, &e.Name, &e.Day, &e.Month, &yearNS,
		&e.Message, &kind, &e.MediaID, &active, &e.CreatedBy, &createdAt)
	if err != nil {
		return e, err
	}
	e.Year = yearFromNull(yearNS)
	e.MediaKind = domain.MediaKind(kind)
	e.IsActive = active != 0
	e.CreatedAt = time.Unix(createdAt, 0).UTC()
	return e, nil
}

func (r *SQLiteRepo) AddEvent(ctx context.Context, e *domain.Event) (int64, error) {
	if e == nil {
		return 0, errors.New("nil event")
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO events (chat_id, name, day, month, year, message, media_kind, media_id, is_active, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		e.ChatID, e.Name, e.Day, e.Month, yearToNull(e.Year),
		e.Message, string(e.MediaKind), e.MediaID, e.CreatedBy, time.Now().UTC().Unix(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) DeleteEvent(ctx context.Context, chatID, eventID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM events WHERE id = ? AND chat_id = ?`, eventID, chatID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleEvent flips is_active and returns the new state.
func (r *SQLiteRepo) ToggleEvent(ctx context.Context, chatID, eventID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET is_active = 1 - is_active WHERE id = ? AND chat_id = ?`,
		eventID, chatID)
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return false, ErrNotFound
	}
	var active int
	if err := r.db.QueryRowContext(ctx,
		`SELECT is_active FROM events WHERE id = ?`, eventID).Scan(&active); err != nil {
		return false, err
	}
	return active != 0, nil
}

func (r *SQLiteRepo) ListEventsByChat(ctx context.Context, chatID int64) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE chat_id = ? ORDER BY month, day`, chatID)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func (r *SQLiteRepo) CountEventsByChat(ctx context.Context, chatID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE chat_id = ?`, chatID).Scan(&n)
	return n, err
}

// ListDueEvents returns active events on (day, month) that have no sent-marker
// for sentDate yet.
func (r *SQLiteRepo) ListDueEvents(ctx context.Context, day, month int, sentDate time.Time) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.chat_id, e.name, e.day, e.month, e.year, e.message,
		       e.media_kind, e.media_id, e.is_active, e.created_by, e.created_at
		FROM events e
		LEFT JOIN sent_events se ON se.event_id = e.id AND se.sent_date = ?
		WHERE e.is_active = 1 AND e.month = ? AND e.day = ? AND se.id IS NULL
		ORDER BY e.chat_id`,
		dateKey(sentDate), month, day)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]domain.Event, error) {
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// ---- sent-markers ----

func (r *SQLiteRepo) MarkBirthdaySent(ctx context.Context, chatID, userID, congratulationID int64, sentDate time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sent_congratulations (chat_id, user_id, congratulation_id, sent_date, sent_at)
		VALUES (?, ?, ?, ?, ?)`,
		chatID, userID, congratulationID, dateKey(sentDate), time.Now().UTC().Unix())
	return err
}

func (r *SQLiteRepo) WasBirthdaySent(ctx context.Context, chatID, userID int64, sentDate time.Time) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM sent_congratulations
		WHERE chat_id = ? AND user_id = ? AND sent_date = ?`,
		chatID, userID, dateKey(sentDate)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *SQLiteRepo) MarkEventSent(ctx context.Context, eventID int64, sentDate time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sent_events (event_id, sent_date, sent_at) VALUES (?, ?, ?)`,
		eventID, dateKey(sentDate), time.Now().UTC().Unix())
	return err
}

// ---- maintenance ----

// PurgeSentMarkers deletes sent-markers of both kinds older than the given day.
func (r *SQLiteRepo) PurgeSentMarkers(ctx context.Context, before time.Time) error {
	key := dateKey(before)
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM sent_congratulations WHERE sent_date < ?`, key); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sent_events WHERE sent_date < ?`, key)
	return err
}

// DeactivateElapsedEvents turns off events whose annotated year lies fully in
// the past relative to today. Returns the number of deactivated events.
func (r *SQLiteRepo) DeactivateElapsedEvents(ctx context.Context, today time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE events SET is_active = 0
		WHERE is_active = 1 AND year IS NOT NULL
		  AND (year < ? OR (year = ? AND (month < ? OR (month = ? AND day < ?))))`,
		today.Year(), today.Year(), int(today.Month()), int(today.Month()), today.Day())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SQLiteRepo) Stats(ctx context.Context) (*domain.Stats, error) {
	var s domain.Stats
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM allowed_chats WHERE is_active = 1`).Scan(&s.Chats); err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM birthdays`).Scan(&s.Birthdays); err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events`).Scan(&s.Events); err != nil {
		return nil, err
	}
	var err error
	s.Congratulations, err = r.countCongratulations(ctx)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SeedCongratulations fills an empty pool with the given texts. A non-empty
// pool is left untouched so an uploaded pool is never overwritten.
func (r *SQLiteRepo) SeedCongratulations(ctx context.Context, texts []string, max int) (int, error) {
	n, err := r.countCongratulations(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	return r.ReplaceCongratulations(ctx, texts, 0, max)
}
