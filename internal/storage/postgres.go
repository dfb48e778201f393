package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vipinnagar8700/meditationLife-sub000/internal"
)

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(ctx context.Context, dsn string, logger internal.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Errorf("failed to ping postgres: %v", err)
		return nil, err
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

func (p *PostgresStorage) Pool() *pgxpool.Pool { return p.pool }

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

const entryColumns = `id, user_id, kind, day, occurred_at, mood_level, mood_note, sleep_intensity, sleep_description, sleep_note, created_at, updated_at`

// entryRow mirrors a track_entries row; variant columns are nullable.
type entryRow struct {
	ID               string
	UserID           string
	Kind             string
	Day              string
	OccurredAt       time.Time
	MoodLevel        *string
	MoodNote         string
	SleepIntensity   *int
	SleepDescription *string
	SleepNote        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (r *entryRow) scanTargets() []any {
	return []any{&r.ID, &r.UserID, &r.Kind, &r.Day, &r.OccurredAt, &r.MoodLevel, &r.MoodNote,
		&r.SleepIntensity, &r.SleepDescription, &r.SleepNote, &r.CreatedAt, &r.UpdatedAt}
}

func (r *entryRow) toEntry() internal.Entry {
	e := internal.Entry{
		ID:         r.ID,
		UserID:     r.UserID,
		Kind:       internal.Kind(r.Kind),
		Day:        r.Day,
		OccurredAt: r.OccurredAt,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	switch e.Kind {
	case internal.KindMood:
		m := &internal.MoodDetails{MoodNote: r.MoodNote}
		if r.MoodLevel != nil {
			m.MoodLevel = internal.MoodLevel(*r.MoodLevel)
		}
		e.MoodDetails = m
	case internal.KindSleep:
		s := &internal.SleepDetails{SleepNote: r.SleepNote}
		if r.SleepIntensity != nil {
			s.SleepIntensity = *r.SleepIntensity
		}
		if r.SleepDescription != nil {
			s.SleepDescription = internal.SleepDescription(*r.SleepDescription)
		}
		e.SleepDetails = s
	}
	return e
}

// variantArgs returns mood_level, mood_note, sleep_intensity, sleep_description, sleep_note.
func variantArgs(e *internal.Entry) (moodLevel *string, moodNote string, intensity *int, desc *string, sleepNote string) {
	if e.MoodDetails != nil {
		l := string(e.MoodLevel)
		moodLevel = &l
		moodNote = e.MoodNote
	}
	if e.SleepDetails != nil {
		i := e.SleepIntensity
		d := string(e.SleepDescription)
		intensity, desc = &i, &d
		sleepNote = e.SleepNote
	}
	return
}

// --- EntryRepository ---

func (p *PostgresStorage) UpsertDaily(ctx context.Context, e *internal.Entry, keepNote bool) (bool, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if e.OccurredAt.IsZero() {
		e.OccurredAt = now
	}
	moodLevel, moodNote, intensity, desc, sleepNote := variantArgs(e)

	query := `
		INSERT INTO track_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (user_id, kind, day) DO UPDATE SET
			mood_level = EXCLUDED.mood_level,
			mood_note = CASE WHEN $12 THEN track_entries.mood_note ELSE EXCLUDED.mood_note END,
			sleep_intensity = EXCLUDED.sleep_intensity,
			sleep_description = EXCLUDED.sleep_description,
			sleep_note = CASE WHEN $12 THEN track_entries.sleep_note ELSE EXCLUDED.sleep_note END,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + entryColumns + `, (xmax = 0) AS inserted`

	var row entryRow
	var inserted bool
	err := p.pool.QueryRow(ctx, query,
		e.ID, e.UserID, string(e.Kind), e.Day, e.OccurredAt,
		moodLevel, moodNote, intensity, desc, sleepNote, now, keepNote,
	).Scan(append(row.scanTargets(), &inserted)...)
	if err != nil {
		p.logger.Errorf("failed to upsert track entry: %v", err)
		return false, fmt.Errorf("upsert track entry: %w", err)
	}
	*e = row.toEntry()
	return inserted, nil
}

func (p *PostgresStorage) GetEntry(ctx context.Context, id string) (*internal.Entry, error) {
	var row entryRow
	err := p.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM track_entries WHERE id = $1`, id).Scan(row.scanTargets()...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, internal.ErrNotFound
		}
		p.logger.Errorf("failed to get track entry: %v", err)
		return nil, fmt.Errorf("get track entry: %w", err)
	}
	e := row.toEntry()
	return &e, nil
}

func (p *PostgresStorage) UpdateEntry(ctx context.Context, e *internal.Entry) error {
	moodLevel, moodNote, intensity, desc, sleepNote := variantArgs(e)
	var row entryRow
	err := p.pool.QueryRow(ctx, `
		UPDATE track_entries SET
			mood_level = $2, mood_note = $3, sleep_intensity = $4, sleep_description = $5, sleep_note = $6,
			updated_at = $7
		WHERE id = $1
		RETURNING `+entryColumns,
		e.ID, moodLevel, moodNote, intensity, desc, sleepNote, time.Now().UTC(),
	).Scan(row.scanTargets()...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return internal.ErrNotFound
		}
		p.logger.Errorf("failed to update track entry: %v", err)
		return fmt.Errorf("update track entry: %w", err)
	}
	*e = row.toEntry()
	return nil
}

func (p *PostgresStorage) DeleteEntry(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM track_entries WHERE id = $1`, id)
	if err != nil {
		p.logger.Errorf("failed to delete track entry: %v", err)
		return fmt.Errorf("delete track entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return internal.ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) ListEntries(ctx context.Context, f EntryFilter, pg Page) ([]internal.Entry, int64, error) {
	where, args := buildWhere(f)

	var total int64
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM track_entries`+where, args...).Scan(&total); err != nil {
		p.logger.Errorf("failed to count track entries: %v", err)
		return nil, 0, fmt.Errorf("count track entries: %w", err)
	}

	order := " ORDER BY occurred_at DESC, created_at DESC"
	if f.Ascending {
		order = " ORDER BY occurred_at ASC, created_at ASC"
	}
	query := `SELECT ` + entryColumns + ` FROM track_entries` + where + order
	if pg.Limit > 0 {
		args = append(args, pg.Limit, pg.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		p.logger.Errorf("failed to query track entries: %v", err)
		return nil, 0, fmt.Errorf("query track entries: %w", err)
	}
	defer rows.Close()

	entries := []internal.Entry{}
	for rows.Next() {
		var row entryRow
		if err := rows.Scan(row.scanTargets()...); err != nil {
			p.logger.Errorf("failed to scan track entry: %v", err)
			return nil, 0, fmt.Errorf("scan track entry: %w", err)
		}
		entries = append(entries, row.toEntry())
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate track entries: %w", err)
	}
	return entries, total, nil
}

func (p *PostgresStorage) CountEntries(ctx context.Context, f EntryFilter) (int64, error) {
	where, args := buildWhere(f)
	var total int64
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM track_entries`+where, args...).Scan(&total); err != nil {
		p.logger.Errorf("failed to count track entries: %v", err)
		return 0, fmt.Errorf("count track entries: %w", err)
	}
	return total, nil
}

func (p *PostgresStorage) CountActiveUsers(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := p.pool.QueryRow(ctx, `SELECT count(DISTINCT user_id) FROM track_entries WHERE occurred_at >= $1`, since).Scan(&n)
	if err != nil {
		p.logger.Errorf("failed to count active users: %v", err)
		return 0, fmt.Errorf("count active users: %w", err)
	}
	return n, nil
}

// buildWhere renders f as a WHERE clause with positional arguments.
func buildWhere(f EntryFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if f.UserID != "" {
		add("user_id = ?", f.UserID)
	}
	if f.Kind != "" {
		add("kind = ?", string(f.Kind))
	}
	if f.MoodLevel != "" {
		add("mood_level = ?", string(f.MoodLevel))
	}
	if f.SleepDescription != "" {
		add("sleep_description = ?", string(f.SleepDescription))
	}
	if !f.Since.IsZero() {
		add("occurred_at >= ?", f.Since)
	}
	if !f.Until.IsZero() {
		add("occurred_at < ?", f.Until)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// --- UserRepository ---

func (p *PostgresStorage) GetUser(ctx context.Context, id string) (*internal.User, error) {
	return p.scanUser(ctx, `SELECT id, name, email, role FROM users WHERE id = $1`, id)
}

func (p *PostgresStorage) GetUserByToken(ctx context.Context, token string) (*internal.User, error) {
	return p.scanUser(ctx, `SELECT id, name, email, role FROM users WHERE token = $1`, token)
}

func (p *PostgresStorage) scanUser(ctx context.Context, query string, arg string) (*internal.User, error) {
	var u internal.User
	var role string
	if err := p.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, internal.ErrNotFound
		}
		p.logger.Errorf("failed to get user: %v", err)
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Role = internal.Role(role)
	return &u, nil
}

// --- Compile-time assertions ---
var _ Store = (*PostgresStorage)(nil)
