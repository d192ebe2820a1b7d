package exam

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cadetquiz/internal/testdef"
)

var (
	ErrInvalidMode     = errors.New("invalid test mode")
	ErrInvalidEvent    = errors.New("unsupported event")
	ErrSessionInactive = errors.New("session is not active")
)

type Mode string

const (
	ModePractice Mode = "practice"
	ModeExam     Mode = "exam"
)

// ParseMode accepts practice or exam; empty means practice.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModePractice:
		return ModePractice, nil
	case ModeExam:
		return ModeExam, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, raw)
}

type Phase string

const (
	PhaseReady     Phase = "ready"
	PhaseActive    Phase = "active"
	PhaseTimedOut  Phase = "timed_out"
	PhaseSubmitted Phase = "submitted"
)

type EventType string

const (
	EventStart            EventType = "start"
	EventSelect           EventType = "select"
	EventPrevious         EventType = "previous"
	EventNext             EventType = "next"
	EventJump             EventType = "jump"
	EventKey              EventType = "key"
	EventVisibilityHidden EventType = "visibility_hidden"
	EventBlur             EventType = "blur"
	EventContextMenu      EventType = "context_menu"
	EventTick             EventType = "tick"
	EventSubmit           EventType = "submit"
	EventRestart          EventType = "restart"
)

// Event is one input to the session state machine.
type Event struct {
	Type     EventType `json:"type"`
	Question int       `json:"question"`
	Option   string    `json:"option,omitempty"`
	Key      string    `json:"key,omitempty"`
	Ctrl     bool      `json:"ctrl,omitempty"`
	Shift    bool      `json:"shift,omitempty"`
	Seconds  int       `json:"-"`
}

type Effect int

const (
	EffectNone Effect = iota
	EffectTimedOut
	EffectSubmitted
	EffectRestarted
)

// ResultBundle is the record of a finished attempt handed to the results view.
type ResultBundle struct {
	TestData    *testdef.Definition `json:"testData"`
	UserAnswers []AnswerState       `json:"userAnswers"`
	Results     Results             `json:"results"`
	TimeSpent   int                 `json:"timeSpent"`
	TestMode    Mode                `json:"testMode"`
}

// Session is the state of one attempt. Apply is its only mutator and performs no I/O.
type Session struct {
	def       *testdef.Definition
	mode      Mode
	phase     Phase
	nav       Navigator
	answers   *AnswerSheet
	countdown Countdown
	notices   []Notice
	bundle    *ResultBundle
	startedAt time.Time
}

func NewSession(def *testdef.Definition, mode Mode) *Session {
	s := &Session{def: def, mode: mode}
	s.reset()
	s.phase = PhaseReady
	return s
}

func (s *Session) reset() {
	s.nav = NewNavigator(len(s.def.Questions))
	s.answers = NewAnswerSheet(s.def.Questions)
	s.countdown = NewCountdown(s.def.TimeLimit())
	s.notices = nil
	s.bundle = nil
}

// Deadline is when the countdown of the current attempt reaches zero.
func (s *Session) Deadline() time.Time {
	if s.startedAt.IsZero() {
		return time.Time{}
	}
	return s.startedAt.Add(time.Duration(s.countdown.Limit()) * time.Second)
}

func (s *Session) Mode() Mode                      { return s.mode }
func (s *Session) Phase() Phase                    { return s.phase }
func (s *Session) Active() bool                    { return s.phase == PhaseActive }
func (s *Session) Definition() *testdef.Definition { return s.def }
func (s *Session) Remaining() int                  { return s.countdown.Remaining() }
func (s *Session) Answers() []AnswerState          { return s.answers.Snapshot() }

// Bundle returns the frozen result, or nil before submission.
func (s *Session) Bundle() *ResultBundle {
	if s.bundle == nil {
		return nil
	}
	b := *s.bundle
	return &b
}

// Apply runs one transition. Events that change answers or position are rejected with
// ErrSessionInactive outside the active phase; ticks and focus signals are silently ignored.
func (s *Session) Apply(ev Event, now time.Time) (Effect, error) {
	switch ev.Type {
	case EventStart:
		if s.phase != PhaseReady {
			return EffectNone, nil
		}
		s.begin(now)
		return EffectNone, nil

	case EventSelect, EventPrevious, EventNext, EventJump:
		if !s.Active() {
			return EffectNone, ErrSessionInactive
		}
		return EffectNone, s.navigate(ev)

	case EventKey:
		if !s.Active() {
			return EffectNone, ErrSessionInactive
		}
		if n, ok := integrityNotice(s.mode, true, ev); ok {
			s.notices = append(s.notices, n)
			return EffectNone, nil
		}
		switch action, option := mapKey(ev.Key); action {
		case keyPrevious:
			s.nav.Previous()
		case keyNext:
			s.nav.Next()
		case keySelect:
			return EffectNone, s.answers.Select(s.nav.Current(), option)
		}
		return EffectNone, nil

	case EventVisibilityHidden, EventBlur, EventContextMenu:
		if n, ok := integrityNotice(s.mode, s.Active(), ev); ok {
			s.notices = append(s.notices, n)
		}
		return EffectNone, nil

	case EventTick:
		if !s.Active() {
			return EffectNone, nil
		}
		step := ev.Seconds
		if step <= 0 {
			step = 1
		}
		tr := s.countdown.Advance(step)
		if tr.Warning > 0 {
			s.notices = append(s.notices, timeWarningNotice(tr.Warning))
		}
		if tr.Expired {
			s.phase = PhaseTimedOut
			s.notices = append(s.notices, timeUpNotice())
			return EffectTimedOut, nil
		}
		return EffectNone, nil

	case EventSubmit:
		switch s.phase {
		case PhaseSubmitted:
			return EffectNone, nil
		case PhaseReady:
			return EffectNone, ErrSessionInactive
		}
		s.freeze()
		return EffectSubmitted, nil

	case EventRestart:
		s.reset()
		s.begin(now)
		return EffectRestarted, nil
	}
	return EffectNone, fmt.Errorf("%w: %q", ErrInvalidEvent, ev.Type)
}

func (s *Session) begin(now time.Time) {
	s.phase = PhaseActive
	s.startedAt = now
	if s.mode == ModeExam {
		s.notices = append(s.notices, examStartNotice())
	}
}

func (s *Session) navigate(ev Event) error {
	switch ev.Type {
	case EventSelect:
		return s.answers.Select(ev.Question, ev.Option)
	case EventPrevious:
		s.nav.Previous()
	case EventNext:
		s.nav.Next()
	case EventJump:
		return s.nav.JumpTo(ev.Question)
	}
	return nil
}

func (s *Session) freeze() {
	results, graded := ComputeResults(s.def, s.answers.Snapshot())
	s.bundle = &ResultBundle{
		TestData:    s.def,
		UserAnswers: graded,
		Results:     results,
		TimeSpent:   s.countdown.Elapsed(),
		TestMode:    s.mode,
	}
	s.phase = PhaseSubmitted
}

// DrainNotices returns the queued notices and clears the queue.
func (s *Session) DrainNotices() []Notice {
	out := s.notices
	s.notices = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}

type NavigationView struct {
	Current     int              `json:"current"`
	Total       int              `json:"total"`
	CanPrevious bool             `json:"can_previous"`
	CanNext     bool             `json:"can_next"`
	Progress    float64          `json:"progress"`
	Statuses    []QuestionStatus `json:"statuses"`
	Answered    int              `json:"answered"`
	Remaining   int              `json:"remaining"`
}

type TimerView struct {
	Remaining int    `json:"remaining"`
	Display   string `json:"display"`
	Level     string `json:"level,omitempty"`
}

// SessionView is everything a client needs to draw the test page.
type SessionView struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Category    string         `json:"category"`
	Subcategory string         `json:"subcategory"`
	Mode        Mode           `json:"mode"`
	Phase       Phase          `json:"phase"`
	Active      bool           `json:"active"`
	Question    QuestionView   `json:"question"`
	Navigation  NavigationView `json:"navigation"`
	Timer       TimerView      `json:"timer"`
	Notices     []Notice       `json:"notices"`
	Results     *Results       `json:"results,omitempty"`
}

// View is a pure projection of the session. Notices are not included; see DrainNotices.
func (s *Session) View() SessionView {
	answers := s.answers.Snapshot()
	cur := s.nav.Current()
	answered := s.answers.Answered()

	v := SessionView{
		Title:       s.def.DisplayTitle(),
		Category:    s.def.Category,
		Subcategory: s.def.Subcategory,
		Mode:        s.mode,
		Phase:       s.phase,
		Active:      s.Active(),
		Navigation: NavigationView{
			Current:     cur,
			Total:       s.nav.Total(),
			CanPrevious: s.nav.CanPrevious(),
			CanNext:     s.nav.CanNext(),
			Progress:    s.nav.Progress(),
			Statuses:    Statuses(cur, answers),
			Answered:    answered,
			Remaining:   len(answers) - answered,
		},
		Timer: TimerView{
			Remaining: s.countdown.Remaining(),
			Display:   FormatClock(s.countdown.Remaining()),
			Level:     s.countdown.Level(),
		},
	}
	if cur < len(s.def.Questions) {
		v.Question = RenderQuestion(s.def.Questions[cur], cur, len(s.def.Questions), answers[cur], s.mode)
	}
	if s.bundle != nil {
		r := s.bundle.Results
		v.Results = &r
	}
	return v
}
