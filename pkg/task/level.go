package task

import (
	"fmt"
	"log/slog"
	"strings"
)

// ParseLevel converts a level name (debug, info, warn, error) to a
// slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalidTask, s)
	}
	return l, nil
}
