// Package logger is the small logging interface shared by the process,
// session and SSH layers.
//
// Messages go to stderr through the standard log package, or to the file
// named by VORAX_LOG_FILE so they don't interleave with statement output.
// Debug messages need VORAX_DEBUG.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

const (
	// DebugEnvVar enables debug output when set to any non-empty value.
	DebugEnvVar = "VORAX_DEBUG"
	// FileEnvVar redirects log output to a file, appended to.
	FileEnvVar = "VORAX_LOG_FILE"
)

// Logger defines the interface for logging operations.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

var (
	fileOnce sync.Once
	fileLog  *log.Logger
)

// output returns the logger to write through: the VORAX_LOG_FILE logger
// when that file could be opened, otherwise the standard one.
func output() *log.Logger {
	fileOnce.Do(func() {
		path := os.Getenv(FileEnvVar)
		if path == "" {
			return
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			log.Printf("WARN: can't open %s=%s: %v", FileEnvVar, path, err)
			return
		}
		fileLog = log.New(f, "", log.LstdFlags|log.Lmicroseconds)
	})
	if fileLog != nil {
		return fileLog
	}
	return log.Default()
}

// envLogger prefixes every line and drops debug lines unless VORAX_DEBUG
// is set.
type envLogger struct {
	prefix string
}

// NewEnvLogger returns a logger that prepends prefix, such as "[process]"
// or "[session dev]", to every message.
func NewEnvLogger(prefix string) Logger {
	return &envLogger{prefix: prefix}
}

func (l *envLogger) write(level, format string, args []interface{}) {
	var sb strings.Builder
	sb.WriteString(l.prefix)
	if level != "" {
		sb.WriteString(" " + level + ":")
	}
	sb.WriteString(" ")
	fmt.Fprintf(&sb, format, args...)
	output().Print(sb.String())
}

func (l *envLogger) Debug(format string, args ...interface{}) {
	if os.Getenv(DebugEnvVar) != "" {
		l.write("", format, args)
	}
}

func (l *envLogger) Info(format string, args ...interface{}) { l.write("", format, args) }
func (l *envLogger) Warn(format string, args ...interface{}) { l.write("WARN", format, args) }

func (l *envLogger) Error(format string, args ...interface{}) {
	l.write("ERROR", format, args)
}

type noopLogger struct{}

// Noop returns a logger that discards all messages.
func Noop() Logger {
	return noopLogger{}
}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

// LogMessage is one message captured by a BufferLogger.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger captures messages for test assertions. Pipe readers log
// from their own goroutines, so every method locks.
type BufferLogger struct {
	mu       sync.Mutex
	messages []LogMessage
}

// NewBufferLogger returns an empty BufferLogger.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{}
}

func (l *BufferLogger) add(level, format string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Debug(format string, args ...interface{}) { l.add("debug", format, args) }
func (l *BufferLogger) Info(format string, args ...interface{})  { l.add("info", format, args) }
func (l *BufferLogger) Warn(format string, args ...interface{})  { l.add("warn", format, args) }
func (l *BufferLogger) Error(format string, args ...interface{}) { l.add("error", format, args) }

// Messages returns a copy of what has been captured so far.
func (l *BufferLogger) Messages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogMessage(nil), l.messages...)
}

// HasMessage reports whether any captured message contains substr.
func (l *BufferLogger) HasMessage(substr string) bool {
	for _, m := range l.Messages() {
		if strings.Contains(m.Message, substr) {
			return true
		}
	}
	return false
}

// HasLevel reports whether anything was logged at level.
func (l *BufferLogger) HasLevel(level string) bool {
	for _, m := range l.Messages() {
		if m.Level == level {
			return true
		}
	}
	return false
}
