package domain

import "time"

// LogLevel is the severity tag MobileTouch writes on each log line.
type LogLevel string

const (
	LevelDebug    LogLevel = "DEBUG"
	LevelInfo     LogLevel = "INFO"
	LevelWarning  LogLevel = "WARNING"
	LevelError    LogLevel = "ERROR"
	LevelCritical LogLevel = "CRITICAL"
)

// ParseLogLevel maps a level token to a LogLevel. Unrecognized tokens map
// to INFO, matching how the application itself treats malformed entries.
func ParseLogLevel(s string) LogLevel {
	switch LogLevel(s) {
	case LevelDebug, LevelInfo, LevelWarning, LevelError, LevelCritical:
		return LogLevel(s)
	}
	return LevelInfo
}

// LogEvent is one line observed in the monitored application's log.
// Events are immutable and transient: they exist only between a poll and
// the end of the dispatch cycle that consumed them.
type LogEvent struct {
	// Path identifies the source file.
	Path string

	// Offset is the byte offset of the start of the line within the file
	// generation it was read from.
	Offset int64

	// Line is the 1-based line number within that generation.
	Line int

	// Timestamp is the time parsed from the entry, or zero when the line
	// does not carry a parsable MobileTouch timestamp.
	Timestamp time.Time

	Level   LogLevel
	Message string

	// Raw is the unmodified line text; rules match against this.
	Raw string
}

// ClassifiedEvent is a LogEvent that matched a classification rule.
type ClassifiedEvent struct {
	Event LogEvent
	Kind  ErrorKind

	// RuleID identifies the rule that matched, for the audit trail.
	RuleID string
}
