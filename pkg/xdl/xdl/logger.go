package xdl

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/xdl-lang/xdl/pkg/xdl/evaluator"
)

// Logger receives interpreter output (PRINT and friends)
type Logger = evaluator.Logger

// WriterLogger sends output to an io.Writer
type WriterLogger struct {
	w io.Writer
}

func NewWriterLogger(w io.Writer) *WriterLogger {
	return &WriterLogger{w: w}
}

func (l *WriterLogger) Log(values ...any) {
	fmt.Fprint(l.w, formatLogValues(values...))
}

func (l *WriterLogger) LogLine(values ...any) {
	fmt.Fprintln(l.w, formatLogValues(values...))
}

// StdoutLogger writes to standard output
func StdoutLogger() *WriterLogger {
	return NewWriterLogger(os.Stdout)
}

// BufferedLogger collects output in memory, for tests and for hosts
// that present output themselves. Safe for concurrent use.
type BufferedLogger struct {
	mu    sync.Mutex
	lines []string
	buf   strings.Builder
}

func NewBufferedLogger() *BufferedLogger {
	return &BufferedLogger{}
}

func (l *BufferedLogger) Log(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.WriteString(formatLogValues(values...))
}

func (l *BufferedLogger) LogLine(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.WriteString(formatLogValues(values...))
	l.lines = append(l.lines, l.buf.String())
	l.buf.Reset()
}

// Lines returns the completed lines logged so far
func (l *BufferedLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// String returns all output, completed lines joined by newlines plus
// any unterminated partial line
func (l *BufferedLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var sb strings.Builder
	for _, line := range l.lines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString(l.buf.String())
	return sb.String()
}

func (l *BufferedLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
	l.buf.Reset()
}

// NullLogger discards everything
type NullLogger struct{}

func (l *NullLogger) Log(values ...any)     {}
func (l *NullLogger) LogLine(values ...any) {}

func formatLogValues(values ...any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}
