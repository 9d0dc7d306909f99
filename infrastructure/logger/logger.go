package logger

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Logger is a subsystem logger. All messages are prefixed with the
// subsystem tag and written to the backend the logger was created from.
type Logger struct {
	level uint32
	tag   string
	b     *Backend
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32(&l.level))
}

// SetLevel changes the logging level to the passed level.
func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32(&l.level, uint32(level))
}

// Backend returns the backend this logger writes to.
func (l *Logger) Backend() *Backend {
	return l.b
}

func (l *Logger) writef(lvl Level, format string, args []interface{}) {
	if lvl < l.Level() {
		return
	}
	l.b.write(lvl, l.tag, fmt.Sprintf(format, args...))
}

func (l *Logger) write(lvl Level, args []interface{}) {
	if lvl < l.Level() {
		return
	}
	l.b.write(lvl, l.tag, fmt.Sprint(args...))
}

// Tracef formats message according to format specifier and writes to
// the log with LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) { l.writef(LevelTrace, format, args) }

// Debugf formats message according to format specifier and writes to
// the log with LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) { l.writef(LevelDebug, format, args) }

// Infof formats message according to format specifier and writes to
// the log with LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) { l.writef(LevelInfo, format, args) }

// Warnf formats message according to format specifier and writes to
// the log with LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) { l.writef(LevelWarn, format, args) }

// Errorf formats message according to format specifier and writes to
// the log with LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) { l.writef(LevelError, format, args) }

// Criticalf formats message according to format specifier and writes to
// the log with LevelCritical.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.writef(LevelCritical, format, args)
}

// Trace formats message using the default formats for its operands
// and writes to log with LevelTrace.
func (l *Logger) Trace(args ...interface{}) { l.write(LevelTrace, args) }

// Debug formats message using the default formats for its operands
// and writes to log with LevelDebug.
func (l *Logger) Debug(args ...interface{}) { l.write(LevelDebug, args) }

// Info formats message using the default formats for its operands
// and writes to log with LevelInfo.
func (l *Logger) Info(args ...interface{}) { l.write(LevelInfo, args) }

// Warn formats message using the default formats for its operands
// and writes to log with LevelWarn.
func (l *Logger) Warn(args ...interface{}) { l.write(LevelWarn, args) }

// Error formats message using the default formats for its operands
// and writes to log with LevelError.
func (l *Logger) Error(args ...interface{}) { l.write(LevelError, args) }

// LogAndMeasureExecutionTime logs the start of functionName at debug level
// and returns a function that logs its end together with the time it took.
func LogAndMeasureExecutionTime(log *Logger, functionName string) (onEnd func()) {
	start := time.Now()
	log.Debugf("%s start", functionName)
	return func() {
		log.Debugf("%s end. Took: %s", functionName, time.Since(start))
	}
}
