package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
)

const normalLogSize = 512

// defaultFlags is read from the LOGFLAGS environment variable. It is a
// variable initializer rather than init() because BackendLog depends on it.
var defaultFlags = getDefaultFlags()

// Flags to modify Backend's behavior.
const (
	// LogFlagLongFile includes the full path and line number of the
	// logging callsite, e.g. /a/b/c/main.go:123.
	LogFlagLongFile uint32 = 1 << iota

	// LogFlagShortFile includes the file name and line number of the
	// logging callsite, e.g. main.go:123. It takes precedence over
	// LogFlagLongFile.
	LogFlagShortFile
)

// getDefaultFlags parses the comma separated LOGFLAGS environment variable.
func getDefaultFlags() (flags uint32) {
	for _, f := range strings.Split(os.Getenv("LOGFLAGS"), ",") {
		switch strings.TrimSpace(f) {
		case "longfile":
			flags |= LogFlagLongFile
		case "shortfile":
			flags |= LogFlagShortFile
		}
	}
	return flags
}

// logsBuffer bounds how many entries validators may queue before a write
// blocks on the backend goroutine.
const logsBuffer = 256

const (
	defaultThresholdKB = 100 * 1000 // 100 MB logs by default.
	defaultMaxRolls    = 8          // keep 8 last logs by default.
)

// Backend is a logging backend. Subsystems created from the backend queue
// their entries to a single goroutine that writes every entry to each
// writer whose level admits it.
type Backend struct {
	flag      uint32
	isRunning atomic.Bool
	writers   []logWriter
	writeChan chan logEntry
	done      chan struct{}
	closeOnce sync.Once

	// closeLock keeps writeChan open while entries are being enqueued.
	closeLock sync.RWMutex
}

type logWriter struct {
	io.WriteCloser
	level Level
}

// NewBackendWithFlags configures a Backend to use the specified flags rather
// than the LOGFLAGS defaults.
func NewBackendWithFlags(flags uint32) *Backend {
	return &Backend{
		flag:      flags,
		writeChan: make(chan logEntry, logsBuffer),
		done:      make(chan struct{}),
	}
}

// NewBackend creates a new logger backend.
func NewBackend() *Backend {
	return NewBackendWithFlags(defaultFlags)
}

// AddLogFile adds a rotated log file, created if missing, that receives
// entries at logLevel and above.
func (b *Backend) AddLogFile(logFile string, logLevel Level) error {
	return b.AddLogFileWithCustomRotator(logFile, logLevel, defaultThresholdKB, defaultMaxRolls)
}

// AddLogWriter adds a writer that receives entries at logLevel and above.
// The backend closes it on Close.
func (b *Backend) AddLogWriter(writer io.WriteCloser, logLevel Level) error {
	if b.IsRunning() {
		return errors.New("the logger is already running")
	}
	b.writers = append(b.writers, logWriter{WriteCloser: writer, level: logLevel})
	return nil
}

// AddLogFileWithCustomRotator adds a log file rotated once it grows past
// thresholdKB, keeping maxRolls old files.
func (b *Backend) AddLogFileWithCustomRotator(logFile string, logLevel Level, thresholdKB int64, maxRolls int) error {
	logDir, _ := filepath.Split(logFile)
	if logDir != "" {
		err := os.MkdirAll(logDir, 0700)
		if err != nil {
			return errors.Wrapf(err, "failed to create log directory")
		}
	}
	r, err := rotator.New(logFile, thresholdKB, false, maxRolls)
	if err != nil {
		return errors.Wrapf(err, "failed to create file rotator")
	}
	return b.AddLogWriter(r, logLevel)
}

// Run launches the writer goroutine. It may only be called once.
func (b *Backend) Run() error {
	if !b.isRunning.CompareAndSwap(false, true) {
		return errors.New("the logger is already running")
	}
	go func() {
		defer close(b.done)
		defer func() {
			if err := recover(); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Fatal error in logger.Backend goroutine: %+v\n", err)
				_, _ = fmt.Fprintf(os.Stderr, "Goroutine stacktrace: %s\n", debug.Stack())
			}
		}()
		for entry := range b.writeChan {
			for _, writer := range b.writers {
				if entry.level >= writer.level {
					_, _ = writer.Write(entry.log)
				}
			}
		}
	}()
	return nil
}

// IsRunning returns whether Run has been called and Close has not.
func (b *Backend) IsRunning() bool {
	return b.isRunning.Load()
}

// Close flushes the queued entries and closes every writer. Entries logged
// after Close are dropped.
func (b *Backend) Close() {
	b.closeOnce.Do(func() {
		b.closeLock.Lock()
		wasRunning := b.isRunning.Swap(false)
		close(b.writeChan)
		b.closeLock.Unlock()
		if wasRunning {
			<-b.done
		}
		for _, writer := range b.writers {
			_ = writer.Close()
		}
	})
}

// Logger returns a new logger for a particular subsystem that writes to the
// Backend b. The tag is included in all log messages. The logger is off
// until a level is set.
func (b *Backend) Logger(subsystemTag string) *Logger {
	return &Logger{lvl: LevelOff, tag: subsystemTag, b: b}
}

// enqueue hands entry to the writer goroutine, or drops it once the backend
// is closed.
func (b *Backend) enqueue(entry logEntry) {
	b.closeLock.RLock()
	defer b.closeLock.RUnlock()
	if b.IsRunning() {
		b.writeChan <- entry
	}
}
