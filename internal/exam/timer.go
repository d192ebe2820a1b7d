package exam

import "fmt"

const (
	WarnFiveMinutes = 300
	WarnOneMinute   = 60
)

// warnThresholds is ordered from most to least urgent.
var warnThresholds = []int{WarnOneMinute, WarnFiveMinutes}

const (
	LevelWarning = "warning"
	LevelDanger  = "danger"
)

// Countdown is the pure timer state. Thresholds are range-checked so a multi-second jump
// still fires each warning exactly once.
type Countdown struct {
	limit     int
	remaining int
	fired     map[int]bool
}

type TickResult struct {
	Remaining int
	Warning   int
	Expired   bool
}

func NewCountdown(limit int) Countdown {
	if limit < 0 {
		limit = 0
	}
	return Countdown{limit: limit, remaining: limit, fired: map[int]bool{}}
}

func (c Countdown) Limit() int     { return c.limit }
func (c Countdown) Remaining() int { return c.remaining }

// Elapsed is the configured limit minus what is left.
func (c Countdown) Elapsed() int {
	return c.limit - c.remaining
}

// Advance moves the countdown forward by n seconds, clamping at zero.
func (c *Countdown) Advance(n int) TickResult {
	if n <= 0 || c.remaining == 0 {
		return TickResult{Remaining: c.remaining, Expired: c.remaining == 0}
	}
	if c.fired == nil {
		c.fired = map[int]bool{}
	}
	prev := c.remaining
	c.remaining -= n
	if c.remaining < 0 {
		c.remaining = 0
	}

	res := TickResult{Remaining: c.remaining, Expired: c.remaining == 0}
	for _, t := range warnThresholds {
		if prev > t && c.remaining <= t && !c.fired[t] {
			c.fired[t] = true
			if res.Warning == 0 && !res.Expired {
				res.Warning = t
			}
		}
	}
	return res
}

// Level is the display urgency of the clock.
func (c Countdown) Level() string {
	switch {
	case c.remaining <= WarnOneMinute:
		return LevelDanger
	case c.remaining <= WarnFiveMinutes:
		return LevelWarning
	}
	return ""
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
