package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
)

// defaultFlags specifies changes to the default logger behavior. It is set
// from the LOGFLAGS environment variable before any backend is created.
var defaultFlags = getDefaultFlags()

// Flags to modify Backend's behavior.
const (
	// LogFlagLongFile modifies the logger output to include full path and line number
	// of the logging callsite, e.g. /a/b/c/main.go:123.
	LogFlagLongFile uint32 = 1 << iota

	// LogFlagShortFile modifies the logger output to include filename and line number
	// of the logging callsite, e.g. main.go:123. Takes precedence over LogFlagLongFile.
	LogFlagShortFile
)

// Read logger flags from the LOGFLAGS environment variable. Multiple flags can
// be set at once, separated by commas.
func getDefaultFlags() (flags uint32) {
	for _, f := range strings.Split(os.Getenv("LOGFLAGS"), ",") {
		switch f {
		case "longfile":
			flags |= LogFlagLongFile
		case "shortfile":
			flags |= LogFlagShortFile
		}
	}
	return
}

const (
	defaultThresholdKB = 100 * 1000 // 100 MB logs by default.
	defaultMaxRolls    = 8          // keep 8 last logs by default.
)

type logWriter struct {
	io.WriteCloser
	level Level
}

// Backend is a logging backend. Subsystem loggers created from the backend
// write to all of the backend's writers whose level admits the message.
// Writes are serialized so that lines from concurrent subsystems never
// interleave.
type Backend struct {
	flag    uint32
	mtx     sync.Mutex
	writers []logWriter
	closed  bool
}

// NewBackendWithFlags configures a Backend to use the specified flags rather than using
// the package's defaults as determined through the LOGFLAGS environment
// variable.
func NewBackendWithFlags(flags uint32) *Backend {
	return &Backend{flag: flags}
}

// NewBackend creates a new logger backend.
func NewBackend() *Backend {
	return NewBackendWithFlags(defaultFlags)
}

// AddLogWriter adds a writer which the log will write into on a certain log level.
func (b *Backend) AddLogWriter(writer io.WriteCloser, logLevel Level) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.writers = append(b.writers, logWriter{WriteCloser: writer, level: logLevel})
}

// AddLogFile adds a rotated file which the log will write into on a certain
// log level with the default rotation settings. The file and its directory
// are created if they don't exist.
func (b *Backend) AddLogFile(logFile string, logLevel Level) error {
	return b.AddLogFileWithCustomRotator(logFile, logLevel, defaultThresholdKB, defaultMaxRolls)
}

// AddLogFileWithCustomRotator adds a file which the log will write into on a certain
// log level, with the specified log rotation settings.
func (b *Backend) AddLogFileWithCustomRotator(logFile string, logLevel Level, thresholdKB int64, maxRolls int) error {
	logDir, _ := filepath.Split(logFile)
	if logDir != "" {
		err := os.MkdirAll(logDir, 0700)
		if err != nil {
			return errors.Wrapf(err, "failed to create log directory %s", logDir)
		}
	}
	r, err := rotator.New(logFile, thresholdKB, false, maxRolls)
	if err != nil {
		return errors.Wrapf(err, "failed to create file rotator for %s", logFile)
	}
	b.AddLogWriter(r, logLevel)
	return nil
}

// Close finalizes all writers of this backend. Messages logged afterwards
// are dropped.
func (b *Backend) Close() {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, writer := range b.writers {
		_ = writer.Close()
	}
}

// Logger returns a new logger for a particular subsystem that writes to the
// Backend b. A tag describes the subsystem and is included in all log
// messages. The logger starts at the info verbosity level.
func (b *Backend) Logger(subsystemTag string) *Logger {
	return &Logger{level: uint32(LevelInfo), tag: subsystemTag, b: b}
}

// callsite returns the file name and line number of the callsite of the
// subsystem logger.
func callsite(flag uint32) (string, int) {
	_, file, line, ok := runtime.Caller(calldepth)
	if !ok {
		return "???", 0
	}
	if flag&LogFlagShortFile != 0 {
		short := file
		for i := len(file) - 1; i > 0; i-- {
			if os.IsPathSeparator(file[i]) {
				short = file[i+1:]
				break
			}
		}
		file = short
	}
	return file, line
}

// calldepth is the call depth of the callsite function relative to the
// caller of the subsystem logger.
const calldepth = 4

func (b *Backend) formatHeader(buf *bytes.Buffer, t time.Time, lvl Level, tag string, file string, line int) {
	buf.WriteString(t.Format("2006-01-02 15:04:05.000"))
	buf.WriteString(" [")
	buf.WriteString(lvl.String())
	buf.WriteString("] ")
	buf.WriteString(tag)
	if file != "" {
		buf.WriteByte(' ')
		buf.WriteString(file)
		buf.WriteByte(':')
		fmt.Fprintf(buf, "%d", line)
	}
	buf.WriteString(": ")
}

func (b *Backend) write(lvl Level, tag string, msg string) {
	var file string
	var line int
	if b.flag&(LogFlagShortFile|LogFlagLongFile) != 0 {
		file, line = callsite(b.flag)
	}

	buf := &bytes.Buffer{}
	b.formatHeader(buf, time.Now(), lvl, tag, file, line)
	buf.WriteString(msg)
	if !strings.HasSuffix(msg, "\n") {
		buf.WriteByte('\n')
	}

	b.mtx.Lock()
	defer b.mtx.Unlock()
	if b.closed {
		return
	}
	for _, writer := range b.writers {
		if lvl >= writer.level {
			_, _ = writer.Write(buf.Bytes())
		}
	}
}
