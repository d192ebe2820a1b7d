package exam

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"
)

const (
	DefaultAutoSubmitDelay = 3 * time.Second
	autoSubmitTimeout      = 10 * time.Second
)

// Handoff receives the result bundle of a finished attempt.
type Handoff interface {
	SaveResults(ctx context.Context, visitorID string, bundle ResultBundle) error
}

// Counter receives domain event counts.
type Counter interface {
	Incr(name string)
}

type nopCounter struct{}

func (nopCounter) Incr(string) {}

// Controller serialises every trigger of one session: client events, ticker and auto-submit.
// The result bundle is written outside the lock by whichever caller froze the session.
type Controller struct {
	mu sync.Mutex

	id        string
	visitorID string
	session   *Session

	clock           Clock
	handoff         Handoff
	counter         Counter
	autoSubmitDelay time.Duration

	stop       chan struct{}
	autoTimer  Timer
	generation int
	pending    bool
	writing    bool
	closed     bool
	lastSeen   time.Time
}

func newController(id, visitorID string, session *Session, handoff Handoff, opts Options) *Controller {
	return &Controller{
		id:              id,
		visitorID:       visitorID,
		session:         session,
		clock:           opts.Clock,
		handoff:         handoff,
		counter:         opts.Counter,
		autoSubmitDelay: opts.AutoSubmitDelay,
		lastSeen:        opts.Clock.Now(),
	}
}

func (c *Controller) ID() string        { return c.id }
func (c *Controller) VisitorID() string { return c.visitorID }

// IdleSince reports whether the session has had no activity since before cutoff. The countdown
// and its auto-submit delay count as activity, and a scheduled auto-submit keeps it alive.
func (c *Controller) IdleSince(cutoff time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.autoTimer != nil {
		return false
	}
	seen := c.lastSeen
	if end := c.session.Deadline().Add(c.autoSubmitDelay); end.After(seen) {
		seen = end
	}
	return seen.Before(cutoff)
}

// Start activates the session and begins ticking.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.session.Apply(Event{Type: EventStart}, c.clock.Now())
	c.startTicker()
	logEvent("session_started", map[string]any{"session_id": c.id, "mode": c.session.Mode()})
}

// View returns the render projection and drains queued notices.
func (c *Controller) View() SessionView {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSeen = c.clock.Now()
	v := c.session.View()
	v.ID = c.id
	v.Notices = c.session.DrainNotices()
	return v
}

// Dispatch applies a client event. Submit and restart are routed to their own paths; ticks
// only come from the ticker.
func (c *Controller) Dispatch(ctx context.Context, ev Event) (SessionView, error) {
	switch ev.Type {
	case EventSubmit:
		if _, err := c.Submit(ctx); err != nil {
			return SessionView{}, err
		}
		return c.View(), nil
	case EventRestart:
		c.Restart()
		return c.View(), nil
	case EventTick, EventStart:
		return SessionView{}, fmt.Errorf("%w: %q", ErrInvalidEvent, ev.Type)
	}

	c.mu.Lock()
	before := len(c.session.notices)
	_, err := c.session.Apply(ev, c.clock.Now())
	c.lastSeen = c.clock.Now()
	for _, n := range c.session.notices[before:] {
		if n.Kind == NoticeIntegrity || n.Kind == NoticeRestricted {
			c.counter.Incr("integrity_signals")
			logEvent("integrity_signal", map[string]any{"session_id": c.id, "signal": ev.Type, "key": ev.Key})
		}
	}
	c.mu.Unlock()

	if err != nil {
		return SessionView{}, err
	}
	return c.View(), nil
}

// Submit freezes the session and hands the bundle off. Calls after the first return the frozen
// bundle without writing again, unless the earlier write failed.
func (c *Controller) Submit(ctx context.Context) (*ResultBundle, error) {
	return c.submit(ctx, -1)
}

func (c *Controller) submit(ctx context.Context, generation int) (*ResultBundle, error) {
	c.mu.Lock()
	if generation >= 0 && generation != c.generation {
		c.mu.Unlock()
		return nil, nil
	}
	eff, err := c.session.Apply(Event{Type: EventSubmit}, c.clock.Now())
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if eff == EffectSubmitted {
		c.stopTicker()
		c.cancelAutoSubmit()
		c.pending = true
		c.counter.Incr("sessions_submitted")
	}
	write := c.pending && !c.writing
	if write {
		c.writing = true
	}
	gen := c.generation
	bundle := c.session.Bundle()
	c.mu.Unlock()

	if !write {
		return bundle, nil
	}

	werr := c.handoff.SaveResults(ctx, c.visitorID, *bundle)

	c.mu.Lock()
	if gen == c.generation {
		c.writing = false
		if werr == nil {
			c.pending = false
		}
	}
	c.mu.Unlock()

	if werr != nil {
		c.counter.Incr("handoff_failures")
		logEvent("handoff_failed", map[string]any{"session_id": c.id, "error": werr.Error()})
		return bundle, fmt.Errorf("save results: %w", werr)
	}
	logEvent("session_submitted", map[string]any{
		"session_id": c.id,
		"score":      bundle.Results.Score,
		"passed":     bundle.Results.Passed,
		"time_spent": bundle.TimeSpent,
	})
	return bundle, nil
}

// Restart discards the attempt and starts a fresh one with the same definition and mode.
func (c *Controller) Restart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTicker()
	c.cancelAutoSubmit()
	c.generation++
	c.pending = false
	c.writing = false
	_, _ = c.session.Apply(Event{Type: EventRestart}, c.clock.Now())
	c.lastSeen = c.clock.Now()
	c.startTicker()
	c.counter.Incr("sessions_restarted")
}

// Bundle returns the frozen result, or nil while the attempt is running.
func (c *Controller) Bundle() *ResultBundle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Bundle()
}

// Close stops the ticker and any pending auto-submit.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.stopTicker()
	c.cancelAutoSubmit()
}

func (c *Controller) startTicker() {
	if c.stop != nil || c.closed || !c.session.Active() {
		return
	}
	stop := make(chan struct{})
	c.stop = stop
	go c.runTicker(c.clock.NewTicker(time.Second), stop)
}

func (c *Controller) stopTicker() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *Controller) cancelAutoSubmit() {
	if c.autoTimer != nil {
		c.autoTimer.Stop()
		c.autoTimer = nil
	}
}

func (c *Controller) runTicker(t Ticker, stop chan struct{}) {
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C():
			if !c.tick(stop) {
				return
			}
		}
	}
}

func (c *Controller) tick(stop chan struct{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != stop {
		return false
	}
	eff, _ := c.session.Apply(Event{Type: EventTick, Seconds: 1}, c.clock.Now())
	if eff != EffectTimedOut {
		return c.session.Active()
	}

	c.stopTicker()
	c.counter.Incr("sessions_timed_out")
	logEvent("time_up", map[string]any{"session_id": c.id})

	gen := c.generation
	c.autoTimer = c.clock.AfterFunc(c.autoSubmitDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), autoSubmitTimeout)
		defer cancel()
		if _, err := c.submit(ctx, gen); err != nil {
			log.Printf("auto-submit session %s: %v", c.id, err)
		}
	})
	return false
}

func logEvent(event string, fields map[string]any) {
	entry := map[string]any{"event": event}
	for k, v := range fields {
		entry[k] = v
	}
	b, _ := json.Marshal(entry)
	log.Printf("%s", string(b))
}
