package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// LogDirEnv overrides the default log directory, ~/.tabrotate/logs.
	LogDirEnv = "TABROTATE_LOG_DIR"

	// LogLevelEnv sets the lowest level written (debug, info, warn, error).
	// The default is info.
	LogLevelEnv = "TABROTATE_LOG_LEVEL"
)

// Level orders log entries by severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l Level) String() string {
	return levelNames[l]
}

// ParseLevel maps a level name to a Level. Unknown names yield LevelInfo
// and false.
func ParseLevel(name string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, true
	case "info", "":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}

// Logger writes entries for one component to the run's log file, and to the
// console when one is attached with SetConsole. Every component of a run
// shares the file <run-id>-tabrotate.log.
type Logger struct {
	component string
	out       *log.Logger
	file      *os.File
	mu        sync.Mutex
	closeOnce sync.Once
}

var (
	runID     string
	runIDOnce sync.Once

	dirOnce sync.Once
	logDir  string
	dirErr  error

	minLevel     Level
	minLevelOnce sync.Once

	consoleMu sync.RWMutex
	console   io.Writer
)

func currentRunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

func ensureLogDir() (string, error) {
	dirOnce.Do(func() {
		logDir = os.Getenv(LogDirEnv)
		if logDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				dirErr = fmt.Errorf("failed to get home directory: %w", err)
				return
			}
			logDir = filepath.Join(home, ".tabrotate", "logs")
		}
		if err := os.MkdirAll(logDir, 0750); err != nil {
			dirErr = fmt.Errorf("failed to create log directory: %w", err)
		}
	})
	return logDir, dirErr
}

func threshold() Level {
	minLevelOnce.Do(func() {
		minLevel, _ = ParseLevel(os.Getenv(LogLevelEnv))
	})
	return minLevel
}

// SetConsole mirrors the entries of every component to w. Passing nil
// detaches the console.
func SetConsole(w io.Writer) {
	consoleMu.Lock()
	defer consoleMu.Unlock()
	console = w
}

// NewLogger opens the log file for component. When the file cannot be
// opened the returned logger writes to stderr and the error says why, so
// callers can warn through the fallback.
func NewLogger(component string) (*Logger, error) {
	dir, err := ensureLogDir()
	if err != nil {
		return stderrLogger(component), err
	}

	path := filepath.Join(dir, currentRunID()+"-tabrotate.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return stderrLogger(component), fmt.Errorf("failed to open log file: %w", err)
	}

	return &Logger{
		component: component,
		out:       log.New(file, "", 0),
		file:      file,
	}, nil
}

func stderrLogger(component string) *Logger {
	return &Logger{
		component: component,
		out:       log.New(os.Stderr, "", 0),
	}
}

func (l *Logger) write(level Level, format string, v ...interface{}) {
	if level < threshold() {
		return
	}

	entry := fmt.Sprintf("[%s] [%s] [%s] %s",
		time.Now().Format("2006-01-02 15:04:05.000"), l.component, level, fmt.Sprintf(format, v...))

	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Println(entry)

	consoleMu.RLock()
	w := console
	consoleMu.RUnlock()
	// A stderr fallback already reaches the console
	if w != nil && l.file != nil {
		fmt.Fprintln(w, entry)
	}
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.write(LevelDebug, format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.write(LevelInfo, format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.write(LevelWarn, format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.write(LevelError, format, v...)
}

// Path returns the log file, or "" for a stderr fallback.
func (l *Logger) Path() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}
