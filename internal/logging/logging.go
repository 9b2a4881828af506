package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// Level represents logging verbosity level
type Level int

const (
	// LevelError only logs errors
	LevelError Level = iota
	// LevelWarn logs warnings and errors
	LevelWarn
	// LevelInfo logs info, warnings, and errors (default)
	LevelInfo
	// LevelDebug logs everything including debug messages
	LevelDebug
)

// Format selects how log lines are rendered
type Format int

const (
	// FormatText renders "2006-01-02 15:04:05 [INFO] msg" lines
	FormatText Format = iota
	// FormatJSON renders one JSON object per line with ts, level and msg keys
	FormatJSON
)

// Logger provides leveled logging
type Logger struct {
	mu      sync.Mutex
	level   Level
	format  Format
	output  io.Writer
	encoder zapcore.Encoder
}

var (
	defaultLogger = &Logger{
		level:   LevelInfo,
		output:  os.Stdout,
		encoder: newJSONEncoder(),
	}
)

func newJSONEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
}

// ParseLevel converts a string to a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelInfo, fmt.Errorf("unknown verbosity level: %s (valid: debug, info, warn, error)", s)
	}
}

// ParseFormat converts "text" or "json" to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format: %s (valid: text, json)", s)
	}
}

// String returns the string representation of a level
func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelError:
		return zapcore.ErrorLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelDebug:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLevel sets the global log level
func SetLevel(level Level) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.level = level
}

// SetFormat switches between "text" and "json" output. Unknown values fall
// back to text.
func SetFormat(format string) {
	f, _ := ParseFormat(format)
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.format = f
}

// SetOutput sets the output destination for logging. nil restores stdout.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.output = w
}

// GetLevel returns the current log level
func GetLevel() Level {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	return defaultLogger.level
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	defaultLogger.log(LevelDebug, format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	defaultLogger.log(LevelInfo, format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	defaultLogger.log(LevelWarn, format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	defaultLogger.log(LevelError, format, args...)
}

// LogSQL writes generated statements at info level, one [SQL] line each.
// Statements joined with ";\n" are split so every statement gets its own line.
func LogSQL(sql string) {
	for _, stmt := range strings.Split(sql, ";\n") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		defaultLogger.log(LevelInfo, "[SQL] %s", stmt)
	}
}

// Print always prints regardless of level (for progress bars, summaries)
func Print(format string, args ...interface{}) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	fmt.Fprintf(defaultLogger.output, format, args...)
}

// Println always prints with newline regardless of level
func Println(args ...interface{}) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	fmt.Fprintln(defaultLogger.output, args...)
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level > l.level {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if l.format == FormatJSON {
		l.writeJSON(level, strings.TrimSpace(msg))
		return
	}

	if strings.HasPrefix(msg, "\n") {
		// Handle leading newlines (preserve blank line formatting)
		msg = strings.TrimPrefix(msg, "\n")
		fmt.Fprint(l.output, "\n")
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	fmt.Fprintf(l.output, "%s [%s] %s", timestamp, level.String(), msg)
}

func (l *Logger) writeJSON(level Level, msg string) {
	buf, err := l.encoder.EncodeEntry(zapcore.Entry{
		Level:   level.zapLevel(),
		Time:    time.Now(),
		Message: msg,
	}, nil)
	if err != nil {
		fmt.Fprintf(l.output, "{\"level\":\"error\",\"msg\":%q}\n", err.Error())
		return
	}
	defer buf.Free()
	_, _ = l.output.Write(buf.Bytes())
}

// IsDebug returns true if debug level is enabled
func IsDebug() bool {
	return GetLevel() >= LevelDebug
}

// IsInfo returns true if info level is enabled
func IsInfo() bool {
	return GetLevel() >= LevelInfo
}
