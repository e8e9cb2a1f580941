// Package logging provides component-scoped structured logging for imgsnap,
// backed by charmbracelet/log, with a rotating file sink and optional
// console output on stderr.
//
//	if err := logging.Init(logging.Config{Level: "info"}); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
//	logging.Get("snapshot").Info("snapshot saved", "target", name)
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level is a logging severity.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned for an unrecognised level name.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a level name. "warning" is accepted as an alias of "warn".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default file log level.
	Level string

	// Path is the log file. Empty uses DefaultLogPath().
	Path string

	Rotation RotationConfig

	// Components overrides the level per component name.
	Components map[string]string

	// ConsoleLevel mirrors entries at or above this level to stderr.
	// Empty disables console output.
	ConsoleLevel string
}

// Logger is a component logger writing to the log file and, when enabled,
// to the console.
type Logger struct {
	file      *log.Logger
	console   *log.Logger
	component string
}

// Debug logs a debug message with key/value pairs.
func (l *Logger) Debug(msg string, keyvals ...interface{}) { l.emit(LevelDebug, msg, keyvals) }

// Info logs an info message with key/value pairs.
func (l *Logger) Info(msg string, keyvals ...interface{}) { l.emit(LevelInfo, msg, keyvals) }

// Warn logs a warning with key/value pairs.
func (l *Logger) Warn(msg string, keyvals ...interface{}) { l.emit(LevelWarn, msg, keyvals) }

// Error logs an error with key/value pairs.
func (l *Logger) Error(msg string, keyvals ...interface{}) { l.emit(LevelError, msg, keyvals) }

// With returns a logger that adds keyvals to every entry.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	global.mu.RLock()
	defer global.mu.RUnlock()

	child := &Logger{
		file:      l.file.With(keyvals...),
		component: l.component,
	}
	if l.console != nil {
		child.console = l.console.With(keyvals...)
	}
	return child
}

func (l *Logger) emit(level Level, msg string, keyvals []interface{}) {
	global.mu.RLock()
	file, console := l.file, l.console
	global.mu.RUnlock()

	write(file, level, msg, keyvals)
	if console != nil {
		write(console, level, msg, keyvals)
	}
}

func write(dst *log.Logger, level Level, msg string, keyvals []interface{}) {
	switch level {
	case LevelDebug:
		dst.Debug(msg, keyvals...)
	case LevelInfo:
		dst.Info(msg, keyvals...)
	case LevelWarn:
		dst.Warn(msg, keyvals...)
	case LevelError:
		dst.Error(msg, keyvals...)
	}
}

// registry holds the process-wide logging state. Loggers handed out by Get
// are shells whose sinks are swapped in place on Init and Close, so
// package-level `var logger = logging.Get(...)` values pick up the
// configuration applied later in main.
type registry struct {
	mu          sync.RWMutex
	initialized bool
	writer      *RotatingWriter
	level       Level
	components  map[string]Level
	console     bool
	consoleLvl  Level
	loggers     map[string]*Logger
}

var global = &registry{
	components: make(map[string]Level),
	loggers:    make(map[string]*Logger),
}

// Init configures logging. It may be called again to reconfigure; the
// previous log file is closed first.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	components := make(map[string]Level, len(cfg.Components))
	for comp, name := range cfg.Components {
		lvl, err := ParseLevel(name)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		components[comp] = lvl
	}

	var consoleLvl Level
	console := cfg.ConsoleLevel != ""
	if console {
		if consoleLvl, err = ParseLevel(cfg.ConsoleLevel); err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	writer, err := NewRotatingWriter(path, cfg.Rotation)
	if err != nil {
		return fmt.Errorf("creating log writer: %w", err)
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	if global.writer != nil {
		_ = global.writer.Close()
	}
	global.writer = writer
	global.level = level
	global.components = components
	global.console = console
	global.consoleLvl = consoleLvl
	global.initialized = true

	for comp, l := range global.loggers {
		global.rebuild(comp, l)
	}
	return nil
}

// Get returns the logger for component, creating it on first use. Before
// Init, loggers discard everything.
func Get(component string) *Logger {
	global.mu.RLock()
	l, ok := global.loggers[component]
	global.mu.RUnlock()
	if ok {
		return l
	}

	global.mu.Lock()
	defer global.mu.Unlock()
	if l, ok := global.loggers[component]; ok {
		return l
	}
	l = &Logger{component: component}
	global.rebuild(component, l)
	global.loggers[component] = l
	return l
}

// rebuild points l at the current sinks. Callers hold global.mu.
func (r *registry) rebuild(component string, l *Logger) {
	level := r.level
	if lvl, ok := r.components[component]; ok {
		level = lvl
	}

	if !r.initialized {
		l.file = log.NewWithOptions(io.Discard, log.Options{Prefix: component})
		l.console = nil
		return
	}

	l.file = log.NewWithOptions(r.writer, log.Options{
		Level:           level.charm(),
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          component,
	})

	l.console = nil
	if r.console {
		l.console = log.NewWithOptions(os.Stderr, log.Options{
			Level:           r.consoleLvl.charm(),
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
			Prefix:          component,
		})
	}
}

// Close flushes and closes the log file. Loggers revert to discarding.
func Close() error {
	global.mu.Lock()
	defer global.mu.Unlock()

	if !global.initialized {
		return nil
	}

	var err error
	if global.writer != nil {
		err = global.writer.Close()
		global.writer = nil
	}
	global.initialized = false
	for comp, l := range global.loggers {
		global.rebuild(comp, l)
	}
	if err != nil {
		return fmt.Errorf("closing log writer: %w", err)
	}
	return nil
}

// DefaultLogPath returns $XDG_STATE_HOME/imgsnap/imgsnap.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "imgsnap", "imgsnap.log")
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Path:     DefaultLogPath(),
		Rotation: DefaultRotationConfig(),
	}
}
