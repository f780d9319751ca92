package learning

import (
	"math"
	"time"
)

// Policy holds the fatigue and novelty constants.
type Policy struct {
	// GraceShows is how many unclicked shows are free before decay starts.
	GraceShows int `json:"graceShows" mapstructure:"graceShows"`
	// Decay is the per-show multiplier applied after the grace period.
	Decay float64 `json:"decay" mapstructure:"decay"`
	// Floor bounds fatigue from below.
	Floor float64 `json:"floor" mapstructure:"floor"`
	// RecoveryAfter is the idle time after which a pattern counts as unseen.
	RecoveryAfter time.Duration `json:"recoveryAfter" mapstructure:"recoveryAfter"`
	// RecoverySessions is the number of sessions after which a pattern counts as unseen.
	RecoverySessions int `json:"recoverySessions" mapstructure:"recoverySessions"`
	// NoveltyStep is added for every extra recovery window a pattern stays unseen.
	NoveltyStep float64 `json:"noveltyStep" mapstructure:"noveltyStep"`
	// MaxBoost caps the multiplier.
	MaxBoost float64 `json:"maxBoost" mapstructure:"maxBoost"`
	// EngagementWeight scales the click-through bonus.
	EngagementWeight float64 `json:"engagementWeight" mapstructure:"engagementWeight"`
	// StrongSignal is the raw signal at or above which fatigue is limited.
	StrongSignal float64 `json:"strongSignal" mapstructure:"strongSignal"`
	// StrongFloor is the minimum multiplier for strong signals.
	StrongFloor float64 `json:"strongFloor" mapstructure:"strongFloor"`
}

// MaxBoostCeiling is the highest multiplier any policy may grant.
const MaxBoostCeiling = 1.5

// DefaultPolicy returns the shipped fatigue/novelty constants.
func DefaultPolicy() Policy {
	return Policy{
		GraceShows:       1,
		Decay:            0.85,
		Floor:            0.3,
		RecoveryAfter:    7 * 24 * time.Hour,
		RecoverySessions: 3,
		NoveltyStep:      0.1,
		MaxBoost:         MaxBoostCeiling,
		EngagementWeight: 0.2,
		StrongSignal:     0.85,
		StrongFloor:      0.75,
	}
}

// Multiplier returns the fatigue/novelty factor for pattern id, in (0, MaxBoost].
// A pattern the record has never seen gets 1.0.
func (p Policy) Multiplier(rec *Record, id string, now time.Time) float64 {
	stats, ok := rec.Stats(id)
	if !ok || stats.Shown == 0 {
		return 1.0
	}

	m := 1.0
	if unclicked := stats.ShownSinceClick - p.GraceShows; unclicked > 0 {
		m = math.Max(p.Floor, math.Pow(p.Decay, float64(unclicked)))
	}
	if stats.Clicked > 0 {
		m *= 1 + p.EngagementWeight*stats.ClickThrough()
	}

	if windows := p.unseenWindows(rec, stats, now); windows > 0 {
		m = math.Max(m, 1.0) + p.NoveltyStep*float64(windows-1)
	}

	if m > p.MaxBoost {
		m = p.MaxBoost
	}
	if m <= 0 {
		m = p.Floor
	}
	return m
}

// unseenWindows is how many full recovery windows have passed since the
// pattern was last shown, measured in time or in sessions, whichever is larger.
func (p Policy) unseenWindows(rec *Record, stats PatternStats, now time.Time) int {
	windows := 0
	if p.RecoveryAfter > 0 && !stats.LastShown.IsZero() {
		if idle := now.Sub(stats.LastShown); idle >= p.RecoveryAfter {
			windows = int(idle / p.RecoveryAfter)
		}
	}
	if p.RecoverySessions > 0 && rec != nil {
		if unseen := rec.Sessions - stats.LastShownSession; unseen >= p.RecoverySessions {
			if w := unseen / p.RecoverySessions; w > windows {
				windows = w
			}
		}
	}
	return windows
}

// Score combines a raw signal with the multiplier. Strong signals keep at
// least StrongFloor so fatigue damps them without overriding them.
func (p Policy) Score(signal float64, rec *Record, id string, now time.Time) float64 {
	if signal <= 0 {
		return 0
	}
	m := p.Multiplier(rec, id, now)
	if signal >= p.StrongSignal && m < p.StrongFloor {
		m = p.StrongFloor
	}
	return signal * m
}
