package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nerrad567/seeed-ha-core/internal/entity"
)

const (
	// DefaultLimit is the number of entries History returns for limit <= 0.
	DefaultLimit = 50

	// MaxLimit caps the number of entries History returns.
	MaxLimit = 200

	// timeLayout is fixed-width so that text ordering matches time ordering.
	timeLayout = "2006-01-02T15:04:05.000000Z"

	recordTimeout = 2 * time.Second
)

// Entry is one recorded state change.
type Entry struct {
	ID         int64       `json:"id"`
	EntityID   string      `json:"entity_id"`
	Kind       entity.Kind `json:"kind"`
	Value      float64     `json:"value"`
	RecordedAt time.Time   `json:"recorded_at"`
}

// Logger is the logging contract used by the journal.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Journal stores entity state changes in SQLite.
//
// It implements entity.Listener. Writes from listener callbacks use a short
// timeout and only log failures, so a slow disk never blocks a command.
type Journal struct {
	db     *sql.DB
	logger Logger
	now    func() time.Time
}

// New creates a journal on an open, migrated database.
func New(db *sql.DB) *Journal {
	return &Journal{
		db:     db,
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger.
func (j *Journal) SetLogger(logger Logger) {
	j.logger = logger
}

// Record appends a state change.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - entityID: Entity identifier
//   - kind: entity.KindSensor or entity.KindSwitch
//   - value: Sensor reading, or 1/0 for a switch
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (j *Journal) Record(ctx context.Context, entityID string, kind entity.Kind, value float64) error {
	if entityID == "" {
		return ErrMissingEntityID
	}

	_, err := j.db.ExecContext(ctx,
		"INSERT INTO entity_state_history (entity_id, kind, value, recorded_at) VALUES (?, ?, ?, ?)",
		entityID,
		string(kind),
		value,
		j.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting entity state: %w", err)
	}
	return nil
}

// History returns recent entries for an entity, newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - entityID: Entity identifier
//   - limit: Maximum entries to return (default 50, max 200)
//
// Returns:
//   - []Entry: Entries ordered by recorded_at DESC (may be empty)
//   - error: nil on success, otherwise the underlying query error
func (j *Journal) History(ctx context.Context, entityID string, limit int) ([]Entry, error) {
	if entityID == "" {
		return nil, ErrMissingEntityID
	}
	limit = ClampLimit(limit)

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, entity_id, kind, value, recorded_at
		 FROM entity_state_history
		 WHERE entity_id = ?
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT ?`,
		entityID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying entity state history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var kind, recordedAt string
		if err := rows.Scan(&e.ID, &e.EntityID, &kind, &e.Value, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning entity state history: %w", err)
		}
		e.Kind = entity.Kind(kind)

		ts, err := time.Parse(timeLayout, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing recorded_at: %w", err)
		}
		e.RecordedAt = ts

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entity state history: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than the given duration.
//
// Returns:
//   - int64: Number of rows deleted
//   - error: nil on success, otherwise the underlying database error
func (j *Journal) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, ErrInvalidRetention
	}

	cutoff := j.now().UTC().Add(-olderThan).Format(timeLayout)
	result, err := j.db.ExecContext(ctx,
		"DELETE FROM entity_state_history WHERE recorded_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting entity state history: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

// ClampLimit applies the default and maximum to a requested history size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// SensorChanged records a sensor reading.
func (j *Journal) SensorChanged(s *entity.Sensor) {
	v, ok := s.Value()
	if !ok {
		return
	}
	j.recordChange(s.ID(), entity.KindSensor, v)
}

// SwitchChanged records a switch state as 1 or 0.
func (j *Journal) SwitchChanged(sw *entity.Switch) {
	var v float64
	if sw.State() {
		v = 1
	}
	j.recordChange(sw.ID(), entity.KindSwitch, v)
}

func (j *Journal) recordChange(entityID string, kind entity.Kind, value float64) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := j.Record(ctx, entityID, kind, value); err != nil {
		j.logger.Warn("journal write failed", "entity_id", entityID, "error", err)
	}
}
