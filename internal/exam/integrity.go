package exam

import "strings"

type NoticeKind string

const (
	NoticeInfo        NoticeKind = "info"
	NoticeTimeWarning NoticeKind = "time_warning"
	NoticeIntegrity   NoticeKind = "integrity_warning"
	NoticeRestricted  NoticeKind = "restricted"
	NoticeTimeUp      NoticeKind = "time_up"
)

// Notice is a message queued for the client. DismissAfterMS of zero means the client keeps it
// until acknowledged.
type Notice struct {
	Kind           NoticeKind `json:"kind"`
	Message        string     `json:"message"`
	DismissAfterMS int        `json:"dismiss_after_ms,omitempty"`
}

const (
	msgExamStart     = "Exam Mode Active: Switching applications or tabs will result in test cancellation. Keep this window focused until test completion."
	msgTabSwitch     = "Warning: You switched away from the test window. This is not allowed in exam mode. Multiple violations may result in test cancellation."
	msgAppSwitch     = "Security Alert: You switched to another application. This is not permitted in exam mode. Your test may be cancelled."
	msgContextMenu   = "Right-click is disabled during test."
	msgDevTools      = "Developer tools are disabled during test."
	msgTimeUp        = "Time is up! Your test will be automatically submitted."
	msgFiveMinutes   = "5 minutes remaining!"
	msgOneMinute     = "1 minute remaining!"
	timeWarningMS    = 5000
	restrictedNoteMS = 3000
)

func examStartNotice() Notice {
	return Notice{Kind: NoticeInfo, Message: msgExamStart}
}

func timeUpNotice() Notice {
	return Notice{Kind: NoticeTimeUp, Message: msgTimeUp}
}

func timeWarningNotice(threshold int) Notice {
	msg := msgFiveMinutes
	if threshold == WarnOneMinute {
		msg = msgOneMinute
	}
	return Notice{Kind: NoticeTimeWarning, Message: msg, DismissAfterMS: timeWarningMS}
}

// integrityNotice decides whether a focus or input signal produces a notice. Focus loss only
// counts in exam mode; restricted input is reported in both modes. Nothing fires once the
// session is no longer active. The monitor is advisory and keeps no violation count.
func integrityNotice(mode Mode, active bool, ev Event) (Notice, bool) {
	if !active {
		return Notice{}, false
	}
	switch ev.Type {
	case EventVisibilityHidden:
		if mode == ModeExam {
			return Notice{Kind: NoticeIntegrity, Message: msgTabSwitch}, true
		}
	case EventBlur:
		if mode == ModeExam {
			return Notice{Kind: NoticeIntegrity, Message: msgAppSwitch}, true
		}
	case EventContextMenu:
		return Notice{Kind: NoticeRestricted, Message: msgContextMenu, DismissAfterMS: restrictedNoteMS}, true
	case EventKey:
		if isDevToolsCombo(ev.Key, ev.Ctrl, ev.Shift) {
			return Notice{Kind: NoticeRestricted, Message: msgDevTools, DismissAfterMS: restrictedNoteMS}, true
		}
	}
	return Notice{}, false
}

func isDevToolsCombo(key string, ctrl, shift bool) bool {
	if key == "F12" {
		return true
	}
	k := strings.ToUpper(key)
	if ctrl && shift && (k == "I" || k == "J") {
		return true
	}
	return ctrl && k == "U"
}
