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
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "opsdash/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// Store is the persistence API used by the scheduler core.
type Store interface {
	// Scheduled tasks.
	InsertTaskIfAbsent(ctx context.Context, t ScheduledTask) (inserted bool, err error)
	DueTasks(ctx context.Context, now time.Time) ([]ScheduledTask, error)
	CompleteTask(ctx context.Context, id string, ranAt time.Time) error
	TaskByID(ctx context.Context, id string) (ScheduledTask, error)
	ListTasks(ctx context.Context) ([]ScheduledTask, error)

	// Notifications.
	InsertNotification(ctx context.Context, n AdminNotification) error
	UnreadNotifications(ctx context.Context, limit int) ([]AdminNotification, error)
	MarkNotificationRead(ctx context.Context, id string) error

	// Self-review periods.
	InsertReviewPeriod(ctx context.Context, p SelfReviewPeriod) error
	ReviewPeriodByID(ctx context.Context, id string) (SelfReviewPeriod, error)
	ReviewPeriodsInRange(ctx context.Context, start, end time.Time) ([]SelfReviewPeriod, error)
	SetReviewAnalysis(ctx context.Context, id string, results json.RawMessage) error
	SetReviewStatus(ctx context.Context, id string, status ReviewStatus) error

	Close() error
}

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

// Open opens (or creates) the SQLite database and applies migrations.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("storage: sqlite path is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ---- Scheduled tasks ----

func (s *sqliteStore) InsertTaskIfAbsent(ctx context.Context, t ScheduledTask) (bool, error) {
	if strings.TrimSpace(t.ID) == "" {
		return false, errors.New("storage: task id is required")
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	if t.Status == "" {
		t.Status = TaskActive
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO scheduled_tasks(id, name, type, schedule, next_run, last_run, status, metadata, created_at, updated_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?)
		 ON CONFLICT(id) DO NOTHING`,
		t.ID, t.Name, string(t.Type), t.Schedule, msec(t.NextRun), nullMsec(t.LastRun),
		string(t.Status), nullJSON(t.Meta), msec(t.CreatedAt), msec(t.UpdatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("storage: insert task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *sqliteStore) DueTasks(ctx context.Context, now time.Time) ([]ScheduledTask, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type, schedule, next_run, last_run, status, metadata, created_at, updated_at
		 FROM scheduled_tasks
		 WHERE status = ? AND next_run <= ?
		 ORDER BY next_run ASC`,
		string(TaskActive), msec(now),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: due tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (s *sqliteStore) CompleteTask(ctx context.Context, id string, ranAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_tasks
		 SET status = ?, last_run = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(TaskCompleted), msec(ranAt), msec(time.Now()), id, string(TaskActive),
	)
	if err != nil {
		return fmt.Errorf("storage: complete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) TaskByID(ctx context.Context, id string) (ScheduledTask, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, type, schedule, next_run, last_run, status, metadata, created_at, updated_at
		 FROM scheduled_tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ScheduledTask{}, ErrNotFound
	}
	return t, err
}

func (s *sqliteStore) ListTasks(ctx context.Context) ([]ScheduledTask, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type, schedule, next_run, last_run, status, metadata, created_at, updated_at
		 FROM scheduled_tasks ORDER BY next_run ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage: list tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (ScheduledTask, error) {
	var (
		t        ScheduledTask
		typ      string
		status   string
		nextRun  int64
		lastRun  sql.NullInt64
		meta     sql.NullString
		created  int64
		updated  int64
	)
	err := r.Scan(&t.ID, &t.Name, &typ, &t.Schedule, &nextRun, &lastRun, &status, &meta, &created, &updated)
	if err != nil {
		return ScheduledTask{}, err
	}
	t.Type = TaskType(typ)
	t.Status = TaskStatus(status)
	t.NextRun = fromMsec(nextRun)
	if lastRun.Valid {
		t.LastRun = fromMsec(lastRun.Int64)
	}
	if meta.Valid && meta.String != "" {
		t.Meta = json.RawMessage(meta.String)
	}
	t.CreatedAt = fromMsec(created)
	t.UpdatedAt = fromMsec(updated)
	return t, nil
}

func scanTasks(rows *sql.Rows) ([]ScheduledTask, error) {
	var out []ScheduledTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ---- Notifications ----

func (s *sqliteStore) InsertNotification(ctx context.Context, n AdminNotification) error {
	if strings.TrimSpace(n.ID) == "" {
		return errors.New("storage: notification id is required")
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admin_notifications(id, title, message, type, priority, is_read, action_url, action_label, created_at)
		 VALUES(?,?,?,?,?,?,?,?,?)`,
		n.ID, n.Title, n.Message, string(n.Type), string(n.Priority), boolInt(n.IsRead),
		nullStr(n.ActionURL), nullStr(n.ActionLabel), msec(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("storage: insert notification: %w", err)
	}
	return nil
}

func (s *sqliteStore) UnreadNotifications(ctx context.Context, limit int) ([]AdminNotification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, message, type, priority, is_read, action_url, action_label, created_at
		 FROM admin_notifications
		 WHERE is_read = 0
		 ORDER BY created_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: unread notifications: %w", err)
	}
	defer rows.Close()

	var out []AdminNotification
	for rows.Next() {
		var (
			n      AdminNotification
			typ    string
			prio   string
			isRead int64
			url    sql.NullString
			label  sql.NullString
			at     int64
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &typ, &prio, &isRead, &url, &label, &at); err != nil {
			return nil, err
		}
		n.Type = NotificationType(typ)
		n.Priority = Priority(prio)
		n.IsRead = isRead != 0
		n.ActionURL = url.String
		n.ActionLabel = label.String
		n.CreatedAt = fromMsec(at)
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead is idempotent: marking an already-read row is not an error.
func (s *sqliteStore) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE admin_notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage: mark read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "missing" from "already read".
		var one int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM admin_notifications WHERE id = ?`, id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ---- Self-review periods ----

func (s *sqliteStore) InsertReviewPeriod(ctx context.Context, p SelfReviewPeriod) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("storage: review period id is required")
	}
	if !p.EndDate.After(p.StartDate) {
		return fmt.Errorf("storage: review period %s: end_date must be after start_date", p.ID)
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	if p.Status == "" {
		p.Status = ReviewPending
	}
	scope, err := json.Marshal(p.Scope)
	if err != nil {
		return fmt.Errorf("storage: encode scope: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO self_review_periods(id, title, start_date, end_date, type, status, scope, analysis_results, created_at, updated_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Title, msec(p.StartDate), msec(p.EndDate), string(p.Type), string(p.Status),
		string(scope), nullJSON(p.Analysis), msec(p.CreatedAt), msec(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("storage: insert review period: %w", err)
	}
	return nil
}

func (s *sqliteStore) ReviewPeriodByID(ctx context.Context, id string) (SelfReviewPeriod, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, start_date, end_date, type, status, scope, analysis_results, created_at, updated_at
		 FROM self_review_periods WHERE id = ?`, id)
	p, err := scanReviewPeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SelfReviewPeriod{}, ErrNotFound
	}
	return p, err
}

func (s *sqliteStore) ReviewPeriodsInRange(ctx context.Context, start, end time.Time) ([]SelfReviewPeriod, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, start_date, end_date, type, status, scope, analysis_results, created_at, updated_at
		 FROM self_review_periods
		 WHERE end_date >= ? AND start_date <= ?
		 ORDER BY start_date DESC`,
		msec(start), msec(end),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: review periods in range: %w", err)
	}
	defer rows.Close()

	var out []SelfReviewPeriod
	for rows.Next() {
		p, err := scanReviewPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanReviewPeriod(r rowScanner) (SelfReviewPeriod, error) {
	var (
		p        SelfReviewPeriod
		start    int64
		end      int64
		typ      string
		status   string
		scope    sql.NullString
		analysis sql.NullString
		created  int64
		updated  int64
	)
	err := r.Scan(&p.ID, &p.Title, &start, &end, &typ, &status, &scope, &analysis, &created, &updated)
	if err != nil {
		return SelfReviewPeriod{}, err
	}
	p.StartDate = fromMsec(start)
	p.EndDate = fromMsec(end)
	p.Type = ReviewPeriodType(typ)
	p.Status = ReviewStatus(status)
	if scope.Valid && scope.String != "" {
		_ = json.Unmarshal([]byte(scope.String), &p.Scope)
	}
	if analysis.Valid && analysis.String != "" {
		p.Analysis = json.RawMessage(analysis.String)
	}
	p.CreatedAt = fromMsec(created)
	p.UpdatedAt = fromMsec(updated)
	return p, nil
}

// SetReviewAnalysis stores the analysis blob and moves the period to its
// terminal state in one statement.
func (s *sqliteStore) SetReviewAnalysis(ctx context.Context, id string, results json.RawMessage) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE self_review_periods
		 SET analysis_results = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		nullJSON(results), string(ReviewDone), msec(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("storage: set review analysis: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) SetReviewStatus(ctx context.Context, id string, status ReviewStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE self_review_periods SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), msec(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("storage: set review status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- Helpers ----

func msec(t time.Time) int64 { return t.UnixMilli() }

func fromMsec(ms int64) time.Time { return time.UnixMilli(ms) }

func nullMsec(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UnixMilli()
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
