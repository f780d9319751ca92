// Package learning persists per-scope insight interactions and turns them
// into fatigue and novelty multipliers.
package learning

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	radarerrors "github.com/felixdelbarrio/bug-resolution-radar/internal/errors"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/slogutil"
)

// Store serializes read-modify-write access to learning records.
type Store struct {
	mu      sync.Mutex
	backend Backend
	policy  Policy
	logger  *slog.Logger

	// last saved content hash per scope
	hashes map[string]string
}

// NewStore wraps backend. A nil logger discards output.
func NewStore(backend Backend, policy Policy, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Store{
		backend: backend,
		policy:  policy,
		logger:  slogutil.Component(logger, "learning"),
		hashes:  map[string]string{},
	}
}

// Policy returns the fatigue policy the store was built with.
func (s *Store) Policy() Policy {
	return s.policy
}

// Multiplier is a shortcut for s.Policy().Multiplier.
func (s *Store) Multiplier(rec *Record, patternID string, now time.Time) float64 {
	return s.policy.Multiplier(rec, patternID, now)
}

// Load returns the record for scope. It never fails: a missing record is
// empty, a corrupt one is logged and replaced by an empty one, and an
// invalid scope yields an ephemeral in-memory record.
func (s *Store) Load(ctx context.Context, scope string) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, _ := s.loadLocked(ctx, scope)
	return rec
}

func (s *Store) loadLocked(ctx context.Context, scope string) (*Record, ScopeKey) {
	key, err := ParseScopeKey(scope)
	if err != nil {
		s.logger.Warn("Invalid scope key, using ephemeral record", "scope", scope, "error", err)
		return newEphemeralRecord(scope), ScopeKey{}
	}

	data, err := s.backend.Load(ctx, key.String())
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("Learning backend load failed",
				"scope", key.String(),
				"error", radarerrors.New(radarerrors.StoreUnavailable, "load learning record", err))
		}
		return NewRecord(key), key
	}

	rec, err := decodeRecord(data)
	if err != nil {
		s.logger.Warn("Discarding corrupt learning record",
			"scope", key.String(),
			"error", radarerrors.New(radarerrors.RecordCorrupt, "decode learning record", err))
		return NewRecord(key), key
	}
	rec.Scope = key.String()
	rec.Country = key.Country
	rec.Source = key.Source
	s.hashes[rec.Scope] = contentHash(rec)
	return rec, key
}

// update runs fn on the scope's record and persists the result. Invalid
// scopes are a no-op.
func (s *Store) update(ctx context.Context, scope string, fn func(*Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, _ := s.loadLocked(ctx, scope)
	if rec.Ephemeral() {
		return nil
	}
	fn(rec)
	return s.saveLocked(ctx, rec)
}

func (s *Store) saveLocked(ctx context.Context, rec *Record) error {
	hash := contentHash(rec)
	if s.hashes[rec.Scope] == hash {
		return nil
	}
	data, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to encode learning record: %w", err)
	}
	if err := s.backend.Save(ctx, rec.Scope, data); err != nil {
		return radarerrors.New(radarerrors.StoreUnavailable, "save learning record", err)
	}
	s.hashes[rec.Scope] = hash
	s.logger.Debug("Saved learning record", "scope", rec.Scope, "patterns", len(rec.Patterns))
	return nil
}

// RecordInteraction applies one Shown or Clicked event. Only backend write
// failures are returned.
func (s *Store) RecordInteraction(ctx context.Context, scope, patternID string, kind Interaction, now time.Time) error {
	if kind != Shown && kind != Clicked {
		return fmt.Errorf("unknown interaction %q", kind)
	}
	if strings.TrimSpace(patternID) == "" {
		return nil
	}
	err := s.update(ctx, scope, func(rec *Record) {
		rec.Apply(patternID, kind, now)
	})
	if err != nil {
		return err
	}
	s.appendEvents(ctx, scope, []string{patternID}, kind, now)
	return nil
}

// RecordShown marks several patterns as shown in a single write.
func (s *Store) RecordShown(ctx context.Context, scope string, patternIDs []string, now time.Time) error {
	if len(patternIDs) == 0 {
		return nil
	}
	err := s.update(ctx, scope, func(rec *Record) {
		for _, id := range patternIDs {
			rec.Apply(id, Shown, now)
		}
	})
	if err != nil {
		return err
	}
	s.appendEvents(ctx, scope, patternIDs, Shown, now)
	return nil
}

// BeginSession bumps the session counter used for session-based recovery.
func (s *Store) BeginSession(ctx context.Context, scope string, now time.Time) error {
	return s.update(ctx, scope, func(rec *Record) {
		rec.Sessions++
		rec.UpdatedAt = now
	})
}

// SaveSnapshot stores the operational snapshot used as the next session's baseline.
func (s *Store) SaveSnapshot(ctx context.Context, scope string, snapshot map[string]float64, now time.Time) error {
	return s.update(ctx, scope, func(rec *Record) {
		rec.LastSnapshot = make(map[string]float64, len(snapshot))
		for k, v := range snapshot {
			rec.LastSnapshot[k] = v
		}
		rec.UpdatedAt = now
	})
}

// RemoveSource deletes every scope whose source matches sourceID and
// returns how many were removed.
func (s *Store) RemoveSource(ctx context.Context, sourceID string) (int, error) {
	sid := strings.TrimSpace(sourceID)
	if sid == "" {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.backend.Keys(ctx)
	if err != nil {
		return 0, radarerrors.New(radarerrors.StoreUnavailable, "list learning scopes", err)
	}
	removed := 0
	for _, key := range keys {
		if sourceOf(key) != sid {
			continue
		}
		if err := s.backend.Delete(ctx, key); err != nil {
			return removed, radarerrors.New(radarerrors.StoreUnavailable, "delete learning scope", err)
		}
		delete(s.hashes, key)
		removed++
	}
	if removed > 0 {
		s.logger.Info("Removed learning scopes", "source", sid, "count", removed)
	}
	return removed, nil
}

// CountSourceScopes reports how many scopes belong to sourceID.
func (s *Store) CountSourceScopes(ctx context.Context, sourceID string) (int, error) {
	sid := strings.TrimSpace(sourceID)
	if sid == "" {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.backend.Keys(ctx)
	if err != nil {
		return 0, radarerrors.New(radarerrors.StoreUnavailable, "list learning scopes", err)
	}
	count := 0
	for _, key := range keys {
		if sourceOf(key) == sid {
			count++
		}
	}
	return count, nil
}

// Scopes lists every persisted scope key.
func (s *Store) Scopes(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Keys(ctx)
}

func (s *Store) appendEvents(ctx context.Context, scope string, ids []string, kind Interaction, now time.Time) {
	sink, ok := s.backend.(EventSink)
	if !ok {
		return
	}
	key, err := ParseScopeKey(scope)
	if err != nil {
		return
	}
	for _, id := range ids {
		ev := Event{ID: uuid.New().String(), Scope: key.String(), PatternID: id, Kind: kind, At: now}
		if err := sink.AppendEvent(ctx, ev); err != nil {
			s.logger.Warn("Failed to append interaction event", "scope", ev.Scope, "pattern", id, "error", err)
			return
		}
	}
}

// contentHash fingerprints everything but UpdatedAt.
func contentHash(rec *Record) string {
	cp := rec.Clone()
	cp.UpdatedAt = time.Time{}
	data, err := encodeRecord(cp)
	if err != nil {
		return ""
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
