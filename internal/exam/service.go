package exam

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cadetquiz/internal/testdef"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionForbidden = errors.New("session forbidden")
	ErrVisitorRequired  = errors.New("visitor id is required")
)

type DefinitionLoader interface {
	Load(ctx context.Context, p testdef.Params) (*testdef.Definition, error)
}

type Options struct {
	Clock           Clock
	AutoSubmitDelay time.Duration
	Counter         Counter
}

// Service owns the live sessions. Each session belongs to the visitor that started it.
type Service struct {
	loader  DefinitionLoader
	handoff Handoff
	opts    Options

	mu       sync.RWMutex
	sessions map[string]*Controller
}

type StartInput struct {
	VisitorID   string
	Category    string
	Subcategory string
	Mode        string
}

func NewService(loader DefinitionLoader, handoff Handoff, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.AutoSubmitDelay <= 0 {
		opts.AutoSubmitDelay = DefaultAutoSubmitDelay
	}
	if opts.Counter == nil {
		opts.Counter = nopCounter{}
	}
	return &Service{
		loader:   loader,
		handoff:  handoff,
		opts:     opts,
		sessions: make(map[string]*Controller),
	}
}

// Start loads the definition and begins a session. A failed load creates nothing.
func (s *Service) Start(ctx context.Context, in StartInput) (SessionView, error) {
	visitorID := strings.TrimSpace(in.VisitorID)
	if visitorID == "" {
		return SessionView{}, ErrVisitorRequired
	}
	mode, err := ParseMode(in.Mode)
	if err != nil {
		return SessionView{}, err
	}

	def, err := s.loader.Load(ctx, testdef.Params{Category: in.Category, Subcategory: in.Subcategory})
	if err != nil {
		s.opts.Counter.Incr("load_failures")
		return SessionView{}, fmt.Errorf("load test: %w", err)
	}

	ctrl := newController(uuid.NewString(), visitorID, NewSession(def, mode), s.handoff, s.opts)
	s.mu.Lock()
	s.sessions[ctrl.ID()] = ctrl
	s.mu.Unlock()

	ctrl.Start()
	s.opts.Counter.Incr("sessions_started")
	return ctrl.View(), nil
}

func (s *Service) View(ctx context.Context, visitorID, sessionID string) (SessionView, error) {
	ctrl, err := s.lookup(visitorID, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return ctrl.View(), nil
}

func (s *Service) Dispatch(ctx context.Context, visitorID, sessionID string, ev Event) (SessionView, error) {
	ctrl, err := s.lookup(visitorID, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return ctrl.Dispatch(ctx, ev)
}

func (s *Service) Submit(ctx context.Context, visitorID, sessionID string) (*ResultBundle, error) {
	ctrl, err := s.lookup(visitorID, sessionID)
	if err != nil {
		return nil, err
	}
	return ctrl.Submit(ctx)
}

func (s *Service) Restart(ctx context.Context, visitorID, sessionID string) (SessionView, error) {
	ctrl, err := s.lookup(visitorID, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	ctrl.Restart()
	return ctrl.View(), nil
}

// PurgeIdle closes and forgets sessions not seen for longer than idle. A running countdown
// counts as activity, so an unattended timed attempt still reaches its auto-submit.
func (s *Service) PurgeIdle(idle time.Duration) int {
	cutoff := s.opts.Clock.Now().Add(-idle)

	s.mu.Lock()
	var stale []*Controller
	for id, ctrl := range s.sessions {
		if ctrl.IdleSince(cutoff) {
			stale = append(stale, ctrl)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, ctrl := range stale {
		ctrl.Close()
	}
	return len(stale)
}

func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops every session. Used on shutdown.
func (s *Service) Close() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*Controller)
	s.mu.Unlock()
	for _, ctrl := range all {
		ctrl.Close()
	}
}

func (s *Service) lookup(visitorID, sessionID string) (*Controller, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, ErrSessionNotFound
	}
	s.mu.RLock()
	ctrl, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if ctrl.VisitorID() != visitorID {
		return nil, ErrSessionForbidden
	}
	return ctrl, nil
}
