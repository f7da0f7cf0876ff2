// Package logger provides namespaced debug logging controlled by the DEBUG
// environment variable, following the conventions of the node debug package.
//
// Loggers are cheap to create and disabled by default. Enable them with
// patterns in DEBUG:
//
//	DEBUG=*                      all namespaces
//	DEBUG=workflow:*             all loggers under workflow
//	DEBUG=workflow:*,cli:*       multiple patterns
//	DEBUG=*,-workflow:cache      everything except workflow:cache
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger writes debug messages for a single namespace.
type Logger struct {
	namespace string
	enabled   bool

	mu   sync.Mutex
	last time.Time
}

// New creates a logger for the given namespace. Enablement is resolved
// against the DEBUG environment variable at creation time.
func New(namespace string) *Logger {
	return &Logger{
		namespace: namespace,
		enabled:   matches(namespace, os.Getenv("DEBUG")),
	}
}

// Enabled reports whether this logger's namespace is enabled.
func (l *Logger) Enabled() bool {
	return l.enabled
}

// Printf writes a formatted message to stderr if the logger is enabled.
func (l *Logger) Printf(format string, args ...any) {
	if !l.enabled {
		return
	}
	l.write(fmt.Sprintf(format, args...))
}

// Print concatenates its arguments like fmt.Sprint and writes the result
// with the elapsed time since the previous message.
func (l *Logger) Print(args ...any) {
	if !l.enabled {
		return
	}
	l.mu.Lock()
	elapsed := time.Duration(0)
	now := time.Now()
	if !l.last.IsZero() {
		elapsed = now.Sub(l.last)
	}
	l.last = now
	l.mu.Unlock()
	fmt.Fprintf(os.Stderr, "%s %s +%s\n", l.namespace, fmt.Sprint(args...), elapsed)
}

func (l *Logger) write(msg string) {
	l.mu.Lock()
	l.last = time.Now()
	l.mu.Unlock()
	fmt.Fprintf(os.Stderr, "%s %s\n", l.namespace, msg)
}

// matches evaluates a namespace against a comma-separated DEBUG pattern
// list. Patterns prefixed with '-' exclude; exclusions win over inclusions.
func matches(namespace, patterns string) bool {
	if patterns == "" {
		return false
	}

	included := false
	for _, pattern := range strings.Split(patterns, ",") {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		negate := strings.HasPrefix(pattern, "-")
		if negate {
			pattern = pattern[1:]
		}
		if !matchPattern(namespace, pattern) {
			continue
		}
		if negate {
			return false
		}
		included = true
	}
	return included
}

// matchPattern supports a single trailing '*' wildcard, the only form the
// DEBUG convention uses.
func matchPattern(namespace, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(namespace, strings.TrimSuffix(pattern, "*"))
	}
	return namespace == pattern
}
