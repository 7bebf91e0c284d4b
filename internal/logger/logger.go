package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	blue   = "\x1b[34m"
	yellow = "\x1b[33m"
	red    = "\x1b[31m"
	green  = "\x1b[32m"
	reset  = "\x1b[0m"
)

// Level orders log severities; messages below the current level are dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu     sync.Mutex
	out    io.Writer = os.Stdout
	level            = LevelInfo
	colors           = true
)

// ParseLevel converts a LOG_LEVEL value. Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARNING", "WARN":
		return LevelWarn
	case "ERROR", "ERR":
		return LevelError
	default:
		return LevelInfo
	}
}

// SetLevel changes the minimum level written.
func SetLevel(l Level) {
	mu.Lock()
	level = l
	mu.Unlock()
}

// SetOutput redirects log lines. Colors are only kept for stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	colors = w == os.Stdout
	mu.Unlock()
}

func prefix(l string) string {
	var color string
	switch strings.ToUpper(l) {
	case "DEBUG":
		color = blue
	case "INFO":
		color = green
	case "WARNING", "WARN":
		color = yellow
	case "ERROR", "ERR":
		color = red
	default:
		color = reset
	}
	if !colors {
		return fmt.Sprintf("[%s] - %s - ", strings.ToUpper(l), time.Now().Format("2006-01-02T15:04:05"))
	}
	return fmt.Sprintf("[%s%s%s] - %s - ", color, strings.ToUpper(l), reset, time.Now().Format("2006-01-02T15:04:05"))
}

func write(l Level, name, format string, a ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}
	msg := fmt.Sprintf(format, a...)
	fmt.Fprintf(out, "%s%s\n", prefix(name), msg)
}

func Debugf(format string, a ...interface{}) {
	write(LevelDebug, "DEBUG", format, a...)
}

func Infof(format string, a ...interface{}) {
	write(LevelInfo, "INFO", format, a...)
}

func Warnf(format string, a ...interface{}) {
	write(LevelWarn, "WARNING", format, a...)
}

func Errorf(format string, a ...interface{}) {
	write(LevelError, "ERROR", format, a...)
}

func Fatalf(format string, a ...interface{}) {
	Errorf(format, a...)
	os.Exit(1)
}
