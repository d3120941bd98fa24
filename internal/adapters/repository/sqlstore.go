package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/okian/venuedraw/internal/domain/model"
	"github.com/okian/venuedraw/pkg/logger"
	"github.com/okian/venuedraw/pkg/metrics"
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverPGX      = "pgx"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	defaultMaxOpenConns = 10
	uniqueViolation     = "23505"
)

// Open returns the store selected by driver.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (Store, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverPGX, DriverPostgres, DriverSQLite:
		return OpenSQL(ctx, driver, dsn, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// SQLStore implements Store over database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	logger  logger.Logger
}

// OpenSQL connects with driver (pgx, postgres or sqlite) and verifies the
// connection.
func OpenSQL(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrMissingDSN
	}
	o := options{maxOpenConns: defaultMaxOpenConns, logger: logger.Get().Named("store")}
	for _, opt := range opts {
		opt(&o)
	}

	dialect := DialectPostgres
	if driver == DriverSQLite {
		dialect = DialectSQLite
		// SQLite serializes writers; one connection avoids SQLITE_BUSY.
		o.maxOpenConns = 1
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	db.SetMaxOpenConns(o.maxOpenConns)
	if o.connMaxLifetime > 0 {
		db.SetConnMaxLifetime(o.connMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &SQLStore{db: db, dialect: dialect, logger: o.logger}
	if o.migrate {
		if err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	s.logger.Info(ctx, "sql store ready", logger.String("driver", driver), logger.Int("max_open_conns", o.maxOpenConns))
	return s, nil
}

// Migrate creates missing tables and indexes.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// DB exposes the underlying pool.
func (s *SQLStore) DB() *sql.DB { return s.db }

// Ping checks connectivity.
func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close releases the pool.
func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) observe(op string, start time.Time, err *error) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
	if *err != nil && !errors.Is(*err, ErrNotFound) && !errors.Is(*err, ErrDuplicateWinner) {
		metrics.RecordStoreError(op)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// isUniqueViolation recognizes unique-constraint failures from every driver
// the store supports.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE")
	}
	return false
}

const eventColumns = `id, tenant_id, code, name, type, status, max_display_sessions, display_photo_duration, created_at`

func scanEvent(r rowScanner) (model.Event, error) {
	var e model.Event
	err := r.Scan(&e.ID, &e.TenantID, &e.Code, &e.Name, &e.Type, &e.Status,
		&e.MaxDisplaySessions, &e.DisplayPhotoDuration, &e.CreatedAt)
	return e, notFound(err)
}

// SaveEvent inserts or updates an event.
func (s *SQLStore) SaveEvent(ctx context.Context, e model.Event) (err error) {
	defer s.observe("save_event", time.Now(), &err)
	_, err = s.db.ExecContext(ctx, `INSERT INTO events (`+eventColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
    tenant_id = excluded.tenant_id,
    code = excluded.code,
    name = excluded.name,
    type = excluded.type,
    status = excluded.status,
    max_display_sessions = excluded.max_display_sessions,
    display_photo_duration = excluded.display_photo_duration`,
		e.ID, e.TenantID, e.Code, e.Name, string(e.Type), string(e.Status),
		e.MaxDisplaySessions, e.DisplayPhotoDuration, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save event: %w", err)
	}
	return nil
}

// GetEvent returns an event by id.
func (s *SQLStore) GetEvent(ctx context.Context, id string) (e model.Event, err error) {
	defer s.observe("get_event", time.Now(), &err)
	return scanEvent(s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
}

// GetEventByCode returns an event by its public code.
func (s *SQLStore) GetEventByCode(ctx context.Context, code string) (e model.Event, err error) {
	defer s.observe("get_event_by_code", time.Now(), &err)
	return scanEvent(s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE code = $1`, code))
}

const contactColumns = `id, tenant_id, first_name, last_name, email, phone`

func scanContact(r rowScanner) (model.Contact, error) {
	var c model.Contact
	err := r.Scan(&c.ID, &c.TenantID, &c.FirstName, &c.LastName, &c.Email, &c.Phone)
	return c, notFound(err)
}

// SaveContact inserts or updates a contact.
func (s *SQLStore) SaveContact(ctx context.Context, c model.Contact) (err error) {
	defer s.observe("save_contact", time.Now(), &err)
	_, err = s.db.ExecContext(ctx, `INSERT INTO contacts (`+contactColumns+`)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    tenant_id = excluded.tenant_id,
    first_name = excluded.first_name,
    last_name = excluded.last_name,
    email = excluded.email,
    phone = excluded.phone`,
		c.ID, c.TenantID, c.FirstName, c.LastName, c.Email, c.Phone)
	if err != nil {
		return fmt.Errorf("save contact: %w", err)
	}
	return nil
}

const registrationColumns = `id, event_id, contact_id, answers, created_at`

func scanRegistration(r rowScanner) (model.Registration, error) {
	var (
		reg     model.Registration
		answers []byte
	)
	if err := r.Scan(&reg.ID, &reg.EventID, &reg.ContactID, &answers, &reg.CreatedAt); err != nil {
		return model.Registration{}, notFound(err)
	}
	if len(answers) > 0 {
		reg.Answers = json.RawMessage(answers)
	}
	return reg, nil
}

// SaveRegistration inserts a registration. Existing ids are left untouched.
func (s *SQLStore) SaveRegistration(ctx context.Context, r model.Registration) (err error) {
	defer s.observe("save_registration", time.Now(), &err)
	answers := "{}"
	if len(r.Answers) > 0 {
		answers = string(r.Answers)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO registrations (`+registrationColumns+`)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO NOTHING`,
		r.ID, r.EventID, r.ContactID, answers, r.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save registration: %w", err)
	}
	return nil
}

// GetRegistration returns a registration by id.
func (s *SQLStore) GetRegistration(ctx context.Context, id string) (r model.Registration, err error) {
	defer s.observe("get_registration", time.Now(), &err)
	return scanRegistration(s.db.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id))
}

// IsWinner reports whether the contact already won the event.
func (s *SQLStore) IsWinner(ctx context.Context, eventID, contactID string) (won bool, err error) {
	defer s.observe("is_winner", time.Now(), &err)
	var n int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_winners WHERE event_id = $1 AND contact_id = $2`,
		eventID, contactID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("is winner: %w", err)
	}
	return n > 0, nil
}

// EligibleRegistrations lists registrations whose contact has not won.
func (s *SQLStore) EligibleRegistrations(ctx context.Context, eventID string) (out []model.Registration, err error) {
	defer s.observe("eligible_registrations", time.Now(), &err)
	rows, err := s.db.QueryContext(ctx, `SELECT r.id, r.event_id, r.contact_id, r.answers, r.created_at
FROM registrations r
WHERE r.event_id = $1
  AND NOT EXISTS (
    SELECT 1 FROM event_winners w
    WHERE w.event_id = r.event_id AND w.contact_id = r.contact_id
  )
ORDER BY r.created_at, r.id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("eligible registrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

// InsertWinner stores w, its ordinal and contact in one transaction. The
// UNIQUE (event_id, contact_id) constraint turns a second insert for the same
// contact into ErrDuplicateWinner.
func (s *SQLStore) InsertWinner(ctx context.Context, w model.Winner) (rec model.WinnerRecord, err error) {
	defer s.observe("insert_winner", time.Now(), &err)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rec, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if s.dialect == DialectPostgres {
		// Row lock on the event keeps winner ordinals gap-free under concurrency.
		var locked string
		err = tx.QueryRowContext(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, w.EventID).Scan(&locked)
		if err != nil {
			return rec, fmt.Errorf("lock event: %w", notFound(err))
		}
	}

	// Ordinal is fixed here, in serialization order, not from selected_at.
	var n int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM event_winners WHERE event_id = $1`, w.EventID).Scan(&n); err != nil {
		return rec, fmt.Errorf("count winners: %w", err)
	}
	n++

	_, err = tx.ExecContext(ctx, `INSERT INTO event_winners
    (id, event_id, registration_id, contact_id, number, selected_by, selected_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		w.ID, w.EventID, w.RegistrationID, w.ContactID, n, w.SelectedBy, w.SelectedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			err = ErrDuplicateWinner
			return rec, err
		}
		return rec, fmt.Errorf("insert winner: %w", err)
	}

	contact, err := scanContact(tx.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, w.ContactID))
	if err != nil {
		return rec, fmt.Errorf("load contact: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return rec, fmt.Errorf("commit: %w", err)
	}
	return model.WinnerRecord{Winner: w, Contact: contact, Number: n}, nil
}

// ListWinners returns an event's winners in selection order.
func (s *SQLStore) ListWinners(ctx context.Context, eventID string) (out []model.WinnerRecord, err error) {
	defer s.observe("list_winners", time.Now(), &err)
	rows, err := s.db.QueryContext(ctx, `SELECT w.id, w.event_id, w.registration_id, w.contact_id, w.number, w.selected_by, w.selected_at,
       c.id, c.tenant_id, c.first_name, c.last_name, c.email, c.phone
FROM event_winners w
JOIN contacts c ON c.id = w.contact_id
WHERE w.event_id = $1
ORDER BY w.number`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list winners: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var rec model.WinnerRecord
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.RegistrationID, &rec.ContactID, &rec.Number, &rec.SelectedBy, &rec.SelectedAt,
			&rec.Contact.ID, &rec.Contact.TenantID, &rec.Contact.FirstName, &rec.Contact.LastName,
			&rec.Contact.Email, &rec.Contact.Phone); err != nil {
			return nil, fmt.Errorf("scan winner: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetWinner returns one winner of an event with its ordinal.
func (s *SQLStore) GetWinner(ctx context.Context, eventID, winnerID string) (model.WinnerRecord, error) {
	winners, err := s.ListWinners(ctx, eventID)
	if err != nil {
		return model.WinnerRecord{}, err
	}
	for _, w := range winners {
		if w.ID == winnerID {
			return w, nil
		}
	}
	return model.WinnerRecord{}, ErrNotFound
}

const sessionColumns = `id, event_id, device_code, session_token, is_active, last_heartbeat, expires_at, created_at`

func scanSession(r rowScanner) (model.DisplaySession, error) {
	var (
		ds   model.DisplaySession
		last sql.NullTime
	)
	if err := r.Scan(&ds.ID, &ds.EventID, &ds.DeviceCode, &ds.SessionToken, &ds.IsActive,
		&last, &ds.ExpiresAt, &ds.CreatedAt); err != nil {
		return model.DisplaySession{}, notFound(err)
	}
	if last.Valid {
		t := last.Time
		ds.LastHeartbeat = &t
	}
	return ds, nil
}

func (s *SQLStore) querySessions(ctx context.Context, query string, args ...any) ([]model.DisplaySession, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.DisplaySession
	for rows.Next() {
		ds, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}

// CreateDisplaySession stores a new pending session.
func (s *SQLStore) CreateDisplaySession(ctx context.Context, ds model.DisplaySession) (err error) {
	defer s.observe("create_display_session", time.Now(), &err)
	_, err = s.db.ExecContext(ctx, `INSERT INTO display_sessions (`+sessionColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ds.ID, ds.EventID, ds.DeviceCode, ds.SessionToken, ds.IsActive,
		nullTime(ds.LastHeartbeat), ds.ExpiresAt.UTC(), ds.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create display session: %w", err)
	}
	return nil
}

// FindPendingSessions returns never-activated sessions with the code, newest first.
func (s *SQLStore) FindPendingSessions(ctx context.Context, eventID, deviceCode string) (out []model.DisplaySession, err error) {
	defer s.observe("find_pending_sessions", time.Now(), &err)
	out, err = s.querySessions(ctx, `SELECT `+sessionColumns+` FROM display_sessions
WHERE event_id = $1 AND device_code = $2 AND is_active = FALSE AND last_heartbeat IS NULL
ORDER BY created_at DESC`, eventID, deviceCode)
	if err != nil {
		return nil, fmt.Errorf("find pending sessions: %w", err)
	}
	return out, nil
}

// CountActiveSessions counts live sessions of an event.
func (s *SQLStore) CountActiveSessions(ctx context.Context, eventID string) (n int, err error) {
	defer s.observe("count_active_sessions", time.Now(), &err)
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM display_sessions WHERE event_id = $1 AND is_active = TRUE`, eventID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active sessions: %w", err)
	}
	return n, nil
}

// ActivateSession turns a pending session live in a single conditional update.
func (s *SQLStore) ActivateSession(ctx context.Context, id, token string, at time.Time) (err error) {
	defer s.observe("activate_session", time.Now(), &err)
	res, err := s.db.ExecContext(ctx, `UPDATE display_sessions
SET is_active = TRUE, session_token = $2, last_heartbeat = $3
WHERE id = $1 AND is_active = FALSE AND last_heartbeat IS NULL`, id, token, at.UTC())
	if err != nil {
		return fmt.Errorf("activate session: %w", err)
	}
	return requireRow(res)
}

// TouchHeartbeat refreshes a live session's heartbeat.
func (s *SQLStore) TouchHeartbeat(ctx context.Context, token string, at time.Time) (err error) {
	defer s.observe("touch_heartbeat", time.Now(), &err)
	res, err := s.db.ExecContext(ctx,
		`UPDATE display_sessions SET last_heartbeat = $2 WHERE session_token = $1 AND is_active = TRUE`,
		token, at.UTC())
	if err != nil {
		return fmt.Errorf("touch heartbeat: %w", err)
	}
	return requireRow(res)
}

// GetDisplaySession returns a session by id.
func (s *SQLStore) GetDisplaySession(ctx context.Context, id string) (ds model.DisplaySession, err error) {
	defer s.observe("get_display_session", time.Now(), &err)
	return scanSession(s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM display_sessions WHERE id = $1`, id))
}

// GetSessionByToken returns the session holding token.
func (s *SQLStore) GetSessionByToken(ctx context.Context, token string) (ds model.DisplaySession, err error) {
	defer s.observe("get_session_by_token", time.Now(), &err)
	return scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM display_sessions WHERE session_token = $1`, token))
}

// DeactivateSession marks a session inactive. A session that was never
// authorized also has its code expired so it can no longer be redeemed.
func (s *SQLStore) DeactivateSession(ctx context.Context, id string) (err error) {
	defer s.observe("deactivate_session", time.Now(), &err)
	res, err := s.db.ExecContext(ctx, `UPDATE display_sessions
SET is_active = FALSE,
    expires_at = CASE WHEN last_heartbeat IS NULL THEN created_at ELSE expires_at END
WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}
	return requireRow(res)
}

// ListDisplaySessions returns every session of an event, oldest first.
func (s *SQLStore) ListDisplaySessions(ctx context.Context, eventID string) (out []model.DisplaySession, err error) {
	defer s.observe("list_display_sessions", time.Now(), &err)
	out, err = s.querySessions(ctx, `SELECT `+sessionColumns+` FROM display_sessions
WHERE event_id = $1 ORDER BY created_at, id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list display sessions: %w", err)
	}
	return out, nil
}

// ListLiveSessions returns active sessions across all events.
func (s *SQLStore) ListLiveSessions(ctx context.Context) (out []model.DisplaySession, err error) {
	defer s.observe("list_live_sessions", time.Now(), &err)
	out, err = s.querySessions(ctx, `SELECT `+sessionColumns+` FROM display_sessions WHERE is_active = TRUE`)
	if err != nil {
		return nil, fmt.Errorf("list live sessions: %w", err)
	}
	return out, nil
}

const photoColumns = `id, event_id, contact_id, url, approved, created_at`

func scanPhoto(r rowScanner) (model.Photo, error) {
	var p model.Photo
	err := r.Scan(&p.ID, &p.EventID, &p.ContactID, &p.URL, &p.Approved, &p.CreatedAt)
	return p, notFound(err)
}

// InsertPhoto stores a photo.
func (s *SQLStore) InsertPhoto(ctx context.Context, p model.Photo) (err error) {
	defer s.observe("insert_photo", time.Now(), &err)
	_, err = s.db.ExecContext(ctx, `INSERT INTO photos (`+photoColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.EventID, p.ContactID, p.URL, p.Approved, p.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert photo: %w", err)
	}
	return nil
}

// GetPhoto returns a photo by id.
func (s *SQLStore) GetPhoto(ctx context.Context, id string) (p model.Photo, err error) {
	defer s.observe("get_photo", time.Now(), &err)
	return scanPhoto(s.db.QueryRowContext(ctx, `SELECT `+photoColumns+` FROM photos WHERE id = $1`, id))
}

// SetPhotoApproval updates the moderation flag and returns the new row.
func (s *SQLStore) SetPhotoApproval(ctx context.Context, id string, approved bool) (model.Photo, error) {
	start := time.Now()
	res, err := s.db.ExecContext(ctx, `UPDATE photos SET approved = $2 WHERE id = $1`, id, approved)
	s.observe("set_photo_approval", start, &err)
	if err != nil {
		return model.Photo{}, fmt.Errorf("set photo approval: %w", err)
	}
	if err := requireRow(res); err != nil {
		return model.Photo{}, err
	}
	return s.GetPhoto(ctx, id)
}

// DeletePhoto removes a photo and returns the removed row.
func (s *SQLStore) DeletePhoto(ctx context.Context, id string) (model.Photo, error) {
	p, err := s.GetPhoto(ctx, id)
	if err != nil {
		return model.Photo{}, err
	}
	start := time.Now()
	res, err := s.db.ExecContext(ctx, `DELETE FROM photos WHERE id = $1`, id)
	s.observe("delete_photo", start, &err)
	if err != nil {
		return model.Photo{}, fmt.Errorf("delete photo: %w", err)
	}
	if err := requireRow(res); err != nil {
		return model.Photo{}, err
	}
	return p, nil
}

// ListApprovedPhotos returns approved photos of an event, oldest first.
func (s *SQLStore) ListApprovedPhotos(ctx context.Context, eventID string) (out []model.Photo, err error) {
	defer s.observe("list_approved_photos", time.Now(), &err)
	rows, err := s.db.QueryContext(ctx, `SELECT `+photoColumns+` FROM photos
WHERE event_id = $1 AND approved = TRUE ORDER BY created_at, id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list approved photos: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
