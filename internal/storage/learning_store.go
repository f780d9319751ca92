package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/learning"
)

const (
	recordsTable = "learning_records"
	eventsTable  = "learning_events"
)

// LearningBackend persists learning records and the interaction log in
// SQLite.
type LearningBackend struct {
	db *DB
}

var (
	_ learning.Backend   = (*LearningBackend)(nil)
	_ learning.EventSink = (*LearningBackend)(nil)
)

// NewLearningBackend wraps an open database.
func NewLearningBackend(db *DB) *LearningBackend {
	return &LearningBackend{db: db}
}

// Load returns the encoded record for key or learning.ErrNotFound.
func (b *LearningBackend) Load(ctx context.Context, key string) ([]byte, error) {
	query, args, err := sq.Select("payload").
		From(recordsTable).
		Where(sq.Eq{"scope": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build load query: %w", err)
	}

	var payload []byte
	err = b.db.conn.QueryRowContext(ctx, query, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, learning.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load learning record %q: %w", key, err)
	}
	return payload, nil
}

// Save upserts the encoded record for key.
func (b *LearningBackend) Save(ctx context.Context, key string, data []byte) error {
	source := ""
	if k, err := learning.ParseScopeKey(key); err == nil {
		source = k.Source
	}

	query, args, err := sq.Insert(recordsTable).
		Columns("scope", "source_id", "payload", "updated_at").
		Values(key, source, data, formatTime(time.Now())).
		Suffix("ON CONFLICT(scope) DO UPDATE SET payload = excluded.payload, source_id = excluded.source_id, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build save query: %w", err)
	}

	if _, err := b.db.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save learning record %q: %w", key, err)
	}
	return nil
}

// Delete removes the record for key and its events.
func (b *LearningBackend) Delete(ctx context.Context, key string) error {
	return b.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{recordsTable, eventsTable} {
			query, args, err := sq.Delete(table).Where(sq.Eq{"scope": key}).ToSql()
			if err != nil {
				return fmt.Errorf("build delete query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("delete from %s: %w", table, err)
			}
		}
		return nil
	})
}

// Keys lists every stored scope key in ascending order.
func (b *LearningBackend) Keys(ctx context.Context) ([]string, error) {
	query, args, err := sq.Select("scope").From(recordsTable).OrderBy("scope").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build keys query: %w", err)
	}
	return b.queryStrings(ctx, query, args)
}

// SourceKeys lists the scope keys recorded for one source.
func (b *LearningBackend) SourceKeys(ctx context.Context, sourceID string) ([]string, error) {
	query, args, err := sq.Select("scope").
		From(recordsTable).
		Where(sq.Eq{"source_id": sourceID}).
		OrderBy("scope").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build source keys query: %w", err)
	}
	return b.queryStrings(ctx, query, args)
}

func (b *LearningBackend) queryStrings(ctx context.Context, query string, args []interface{}) ([]string, error) {
	rows, err := b.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scopes: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan scope: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// AppendEvent writes one interaction to the log.
func (b *LearningBackend) AppendEvent(ctx context.Context, ev learning.Event) error {
	query, args, err := sq.Insert(eventsTable).
		Columns("id", "scope", "pattern_id", "kind", "at").
		Values(ev.ID, ev.Scope, ev.PatternID, string(ev.Kind), formatTime(ev.At)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build event query: %w", err)
	}
	if _, err := b.db.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Events returns up to limit events for scope, newest first. An empty scope
// returns events for every scope; limit <= 0 means no limit.
func (b *LearningBackend) Events(ctx context.Context, scope string, limit int) ([]learning.Event, error) {
	q := sq.Select("id", "scope", "pattern_id", "kind", "at").
		From(eventsTable).
		OrderBy("at DESC", "id DESC")
	if scope != "" {
		q = q.Where(sq.Eq{"scope": scope})
	}
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build events query: %w", err)
	}

	rows, err := b.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []learning.Event
	for rows.Next() {
		var (
			ev   learning.Event
			kind string
			at   string
		)
		if err := rows.Scan(&ev.ID, &ev.Scope, &ev.PatternID, &kind, &at); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = learning.Interaction(kind)
		if ev.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("parse event time %q: %w", at, err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// formatTime renders t so lexical order matches time order.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}
