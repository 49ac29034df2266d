package evaluator

import (
	"fmt"
	"os"
	"strings"
)

// Logger receives PRINT output and interpreter messages
type Logger interface {
	Log(values ...any)
	LogLine(values ...any)
}

// defaultStdoutLogger writes to stdout
type defaultStdoutLogger struct{}

func (l *defaultStdoutLogger) Log(values ...any) {
	fmt.Fprint(os.Stdout, formatLogValues(values...))
}

func (l *defaultStdoutLogger) LogLine(values ...any) {
	fmt.Fprintln(os.Stdout, formatLogValues(values...))
}

// DefaultLogger is the stdout logger used when none is injected
var DefaultLogger Logger = &defaultStdoutLogger{}

func formatLogValues(values ...any) string {
	if len(values) == 0 {
		return ""
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}
