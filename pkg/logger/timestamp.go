package logger

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// TimestampLayout is the clock format of launch log lines.
const TimestampLayout = "2006-01-02 15:04:05"

// TimestampLogger writes "<timestamp> - <message>" lines, the format of the
// hidden-launch log files. Levels are not marked; the messages carry their
// own meaning.
type TimestampLogger struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewTimestampLogger writes to w. If w is an io.Closer, Close closes it.
func NewTimestampLogger(w io.Writer) *TimestampLogger {
	return &TimestampLogger{w: w, now: time.Now}
}

// WithClock replaces the clock, for deterministic output.
func (t *TimestampLogger) WithClock(now func() time.Time) *TimestampLogger {
	t.now = now
	return t
}

func (t *TimestampLogger) write(format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "%s - %s\r\n", t.now().Format(TimestampLayout), fmt.Sprintf(format, args...))
}

func (t *TimestampLogger) Info(format string, args ...interface{})    { t.write(format, args...) }
func (t *TimestampLogger) Warning(format string, args ...interface{}) { t.write(format, args...) }
func (t *TimestampLogger) Error(format string, args ...interface{})   { t.write(format, args...) }

func (t *TimestampLogger) Close() error {
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var _ Logger = (*TimestampLogger)(nil)
