// Package xlog provides the leveled, terminal-aware logger every component
// in this module logs through. It mirrors go-ethereum's own log package:
// colorized when its output file is a terminal, plain otherwise.
package xlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

var (
	debugColor = color.New(color.FgHiBlack)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed)
)

// Logger is the interface every component depends on. Keeping it narrow lets
// tests substitute a silent or buffering implementation.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	With(kv ...any) Logger
}

type logger struct {
	out    io.Writer
	color  bool
	prefix []any
}

// New builds a Logger writing to w. If w is an *os.File that refers to a
// terminal, output is colorized and routed through go-colorable so it
// also renders correctly on Windows consoles.
func New(w io.Writer) Logger {
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		if useColor {
			w = colorable.NewColorable(f)
		}
	}
	return &logger{out: w, color: useColor}
}

// Default is the package-level logger used when a component is not handed
// one explicitly.
var Default = New(os.Stderr)

func (l *logger) With(kv ...any) Logger {
	next := &logger{out: l.out, color: l.color}
	next.prefix = append(append([]any{}, l.prefix...), kv...)
	return next
}

func (l *logger) log(level slog.Level, tag string, paint *color.Color, msg string, kv ...any) {
	var b strings.Builder
	b.WriteString(time.Now().Format("15:04:05.000"))
	b.WriteByte(' ')
	if l.color {
		b.WriteString(paint.Sprint(tag))
	} else {
		b.WriteString(tag)
	}
	b.WriteByte(' ')
	b.WriteString(msg)
	all := append(append([]any{}, l.prefix...), kv...)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(&b, " %v=%v", all[i], all[i+1])
	}
	b.WriteByte('\n')
	io.WriteString(l.out, b.String())
}

func (l *logger) Debug(msg string, kv ...any) { l.log(slog.LevelDebug, "DEBG", debugColor, msg, kv...) }
func (l *logger) Info(msg string, kv ...any)  { l.log(slog.LevelInfo, "INFO", debugColor, msg, kv...) }
func (l *logger) Warn(msg string, kv ...any)  { l.log(slog.LevelWarn, "WARN", warnColor, msg, kv...) }
func (l *logger) Error(msg string, kv ...any) { l.log(slog.LevelError, "CRIT", errorColor, msg, kv...) }

// Debug logs through the default logger.
func Debug(msg string, kv ...any) { Default.Debug(msg, kv...) }

// Info logs through the default logger.
func Info(msg string, kv ...any) { Default.Info(msg, kv...) }

// Warn logs through the default logger.
func Warn(msg string, kv ...any) { Default.Warn(msg, kv...) }

// Error logs through the default logger.
func Error(msg string, kv ...any) { Default.Error(msg, kv...) }
