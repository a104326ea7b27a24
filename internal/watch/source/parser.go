package source

import (
	"strings"
	"time"

	"github.com/communityambulance/mtrepair/internal/core/domain"
)

// timeLayout matches the MobileTouch entry prefix, e.g.
// "2025-05-26 09:33:40,383 INFO JS API: getNativeVersion returned: 2023.2.208"
const timeLayout = "2006-01-02 15:04:05,000"

// parseLine turns one raw log line into a LogEvent. Lines that do not carry
// the standard four-part prefix (date, time, level, message) are still
// emitted — rules match on the raw text — with a zero timestamp and INFO
// level, the same lenience the application applies to its own entries.
func parseLine(raw, path string, offset int64, line int) domain.LogEvent {
	ev := domain.LogEvent{
		Path:    path,
		Offset:  offset,
		Line:    line,
		Level:   domain.LevelInfo,
		Message: raw,
		Raw:     raw,
	}

	parts := strings.SplitN(raw, " ", 4)
	if len(parts) < 4 {
		return ev
	}

	ts, err := time.ParseInLocation(timeLayout, parts[0]+" "+parts[1], time.Local)
	if err != nil {
		return ev
	}

	ev.Timestamp = ts
	ev.Level = domain.ParseLogLevel(parts[2])
	ev.Message = parts[3]
	return ev
}
