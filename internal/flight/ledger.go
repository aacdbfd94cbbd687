package flight

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/skyisle/islandfly/internal/sched"
	"go.uber.org/zap"
)

// Message keys used by the ledger.
const (
	msgTimeWarning = "islandfly.flight-time-warning"
	msgTimeEnded   = "islandfly.flight-time-ended"
)

// persistTimeout bounds store writes issued from inside a tick callback.
const persistTimeout = 5 * time.Second

// warnAt is the sparse set of remaining-seconds values that emit a
// "time running low" warning. Intentionally not a continuous countdown.
var warnAt = map[int]bool{30: true, 15: true, 10: true, 5: true, 4: true, 3: true, 2: true, 1: true}

// PlayerHook is the ledger's window onto live player state: the per-tick
// safety check against external drift, forced grounding, and messaging.
type PlayerHook interface {
	// FlightStatus returns the host's current view of the player.
	FlightStatus(id uuid.UUID) (allowed, flying, online bool)
	// GroundPlayer forces flight off (both flying and allow-flight).
	GroundPlayer(id uuid.UUID)
	// Notify sends a templated message; vars are key/value pairs.
	Notify(id uuid.UUID, key string, vars ...string)
}

// session is the in-memory countdown for one player. The cache mirrors the
// record while flying and is flushed to the store when the session ends.
type session struct {
	playerID uuid.UUID
	seconds  int
	task     *sched.Task
}

// Ledger tracks active flight-time countdowns and keeps the persisted
// remaining-seconds value consistent. At most one session per player; all
// methods run on the game loop goroutine.
type Ledger struct {
	store    Store
	sched    *sched.Scheduler
	hook     PlayerHook
	log      *zap.Logger
	sessions map[uuid.UUID]*session
}

func NewLedger(store Store, sc *sched.Scheduler, hook PlayerHook, log *zap.Logger) *Ledger {
	return &Ledger{
		store:    store,
		sched:    sc,
		hook:     hook,
		log:      log,
		sessions: make(map[uuid.UUID]*session),
	}
}

// IsTracked reports whether a countdown session is active for the player.
// Never has side effects.
func (l *Ledger) IsTracked(id uuid.UUID) bool {
	_, ok := l.sessions[id]
	return ok
}

// Record is a read-through to the store. Returns (nil, nil) when the player
// has no flight-time record.
func (l *Ledger) Record(ctx context.Context, id uuid.UUID) (*Record, error) {
	return l.store.Load(ctx, id)
}

// StartTracking begins the per-second countdown for a player that already
// has a record. The record's seconds are loaded into the session cache; the
// timer callback holds only the player ID and looks the session up each tick.
func (l *Ledger) StartTracking(ctx context.Context, id uuid.UUID) error {
	if l.IsTracked(id) {
		return fmt.Errorf("start tracking %s: %w", id, ErrAlreadyTracked)
	}
	rec, err := l.store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("start tracking %s: %w", id, err)
	}
	if rec == nil {
		return fmt.Errorf("start tracking %s: %w", id, ErrNoRecord)
	}

	sess := &session{playerID: id, seconds: rec.Seconds}
	sess.task = l.sched.RunRepeating(time.Second, func() { l.tick(id) })
	l.sessions[id] = sess
	return nil
}

// StopTracking cancels the player's countdown and flushes the cached
// seconds back to the store. Callers must check IsTracked first.
func (l *Ledger) StopTracking(ctx context.Context, id uuid.UUID) error {
	sess, ok := l.sessions[id]
	if !ok {
		return fmt.Errorf("stop tracking %s: %w", id, ErrNotTracked)
	}
	// Cancel before persisting so a stale tick can never fire after the
	// record has been rewritten.
	sess.task.Cancel()
	delete(l.sessions, id)

	secs := sess.seconds
	if secs < 0 {
		secs = 0
	}
	if err := l.store.Save(ctx, &Record{PlayerID: id, Seconds: secs}); err != nil {
		return fmt.Errorf("stop tracking %s: %w", id, err)
	}
	return nil
}

// SetSeconds overwrites the player's flight time. An active session is
// stopped first so the new value isn't clobbered by the stale cache, then
// tracking restarts only when the new value is positive. A non-positive
// value on a tracked player grounds them immediately.
func (l *Ledger) SetSeconds(ctx context.Context, id uuid.UUID, seconds int) (int, error) {
	wasTracked := l.IsTracked(id)
	if wasTracked {
		if err := l.StopTracking(ctx, id); err != nil {
			return 0, err
		}
	}

	stored := seconds
	if stored < 0 {
		stored = 0
	}
	if err := l.store.Save(ctx, &Record{PlayerID: id, Seconds: stored}); err != nil {
		return 0, fmt.Errorf("set seconds %s: %w", id, err)
	}

	if wasTracked {
		if seconds > 0 {
			if err := l.StartTracking(ctx, id); err != nil {
				return 0, err
			}
		} else {
			l.hook.GroundPlayer(id)
			l.hook.Notify(id, msgTimeEnded)
		}
	}
	return seconds, nil
}

// AddSeconds adds delta to the player's flight time. With no prior record
// this behaves as SetSeconds(id, delta). An active session is stopped and
// restarted so the cache picks up the new total.
func (l *Ledger) AddSeconds(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	wasTracked := l.IsTracked(id)
	if wasTracked {
		if err := l.StopTracking(ctx, id); err != nil {
			return 0, err
		}
	}

	rec, err := l.store.Load(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("add seconds %s: %w", id, err)
	}
	if rec == nil {
		// No record yet: fall back to a plain set of the delta.
		return l.setAfterStop(ctx, id, delta, wasTracked)
	}

	total := rec.Seconds + delta
	if total <= 0 {
		return l.expire(ctx, id, wasTracked)
	}
	if err := l.store.Save(ctx, &Record{PlayerID: id, Seconds: total}); err != nil {
		return 0, fmt.Errorf("add seconds %s: %w", id, err)
	}
	if wasTracked {
		if err := l.StartTracking(ctx, id); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// RemoveSeconds subtracts delta from the player's flight time. With no
// prior record this falls back to SetSeconds(id, delta) — the record ends
// up holding delta, matching the established admin-command behavior. A
// result of zero or less grounds the player and stores zero.
func (l *Ledger) RemoveSeconds(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	wasTracked := l.IsTracked(id)
	if wasTracked {
		if err := l.StopTracking(ctx, id); err != nil {
			return 0, err
		}
	}

	rec, err := l.store.Load(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("remove seconds %s: %w", id, err)
	}
	if rec == nil {
		return l.setAfterStop(ctx, id, delta, wasTracked)
	}

	total := rec.Seconds - delta
	if total <= 0 {
		return l.expire(ctx, id, wasTracked)
	}
	if err := l.store.Save(ctx, &Record{PlayerID: id, Seconds: total}); err != nil {
		return 0, fmt.Errorf("remove seconds %s: %w", id, err)
	}
	if wasTracked {
		if err := l.StartTracking(ctx, id); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// DeleteRecord wipes the player's flight data, force-grounding them first
// when a session is active. Always reports 0 remaining.
func (l *Ledger) DeleteRecord(ctx context.Context, id uuid.UUID) (int, error) {
	if l.IsTracked(id) {
		if err := l.StopTracking(ctx, id); err != nil {
			return 0, err
		}
		l.hook.GroundPlayer(id)
		l.hook.Notify(id, msgTimeEnded)
	}
	if err := l.store.Delete(ctx, id); err != nil {
		return 0, fmt.Errorf("delete record %s: %w", id, err)
	}
	return 0, nil
}

// FlushActive persists every active session's cached seconds without
// stopping the countdowns. Used by periodic autosave.
func (l *Ledger) FlushActive(ctx context.Context) error {
	for id, sess := range l.sessions {
		secs := sess.seconds
		if secs < 0 {
			secs = 0
		}
		if err := l.store.Save(ctx, &Record{PlayerID: id, Seconds: secs}); err != nil {
			return fmt.Errorf("flush active %s: %w", id, err)
		}
	}
	return nil
}

// StopAll stops every active session, flushing each cache. Used on shutdown.
func (l *Ledger) StopAll(ctx context.Context) {
	for id := range l.sessions {
		if err := l.StopTracking(ctx, id); err != nil {
			l.log.Error("stop tracking on shutdown",
				zap.String("player", id.String()), zap.Error(err))
		}
	}
}

// ActiveSessions returns the number of running countdowns.
func (l *Ledger) ActiveSessions() int {
	return len(l.sessions)
}

// setAfterStop finishes the no-record fallback of Add/RemoveSeconds: the
// session (if any) was already stopped, so this is a plain save plus the
// same restart/grounding rules as SetSeconds.
func (l *Ledger) setAfterStop(ctx context.Context, id uuid.UUID, seconds int, restart bool) (int, error) {
	stored := seconds
	if stored < 0 {
		stored = 0
	}
	if err := l.store.Save(ctx, &Record{PlayerID: id, Seconds: stored}); err != nil {
		return 0, fmt.Errorf("set seconds %s: %w", id, err)
	}
	if restart {
		if seconds > 0 {
			if err := l.StartTracking(ctx, id); err != nil {
				return 0, err
			}
		} else {
			l.hook.GroundPlayer(id)
			l.hook.Notify(id, msgTimeEnded)
		}
	}
	return seconds, nil
}

// expire handles a mutation that drove the total to zero or below: the
// record is clamped to 0 and, when a session was active, the player is
// grounded and told their time ended.
func (l *Ledger) expire(ctx context.Context, id uuid.UUID, wasTracked bool) (int, error) {
	if wasTracked {
		l.hook.GroundPlayer(id)
		l.hook.Notify(id, msgTimeEnded)
	}
	if err := l.store.Save(ctx, &Record{PlayerID: id, Seconds: 0}); err != nil {
		return 0, fmt.Errorf("expire %s: %w", id, err)
	}
	return 0, nil
}

// tick runs once per second per active session. It deliberately re-checks
// live flight state each time: if the host no longer has the player flying
// (or allowed to fly), the budget is not consumed.
func (l *Ledger) tick(id uuid.UUID) {
	sess, ok := l.sessions[id]
	if !ok {
		return
	}
	allowed, flying, _ := l.hook.FlightStatus(id)
	if !allowed || !flying {
		return
	}

	switch {
	case warnAt[sess.seconds]:
		l.hook.Notify(id, msgTimeWarning, "[number]", strconv.Itoa(sess.seconds))
		sess.seconds--
	case sess.seconds <= 0:
		l.hook.Notify(id, msgTimeEnded)
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		if err := l.StopTracking(ctx, id); err != nil {
			l.log.Error("stop tracking at zero",
				zap.String("player", id.String()), zap.Error(err))
		}
		cancel()
		l.hook.GroundPlayer(id)
	default:
		sess.seconds--
	}
}
