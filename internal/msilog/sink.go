package msilog

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

var (
	infoColor  = color.New(color.FgGreen).SprintFunc()
	debugColor = color.New(color.FgCyan).SprintFunc()
	traceColor = color.New(color.FgYellow).SprintFunc()
	errorColor = color.New(color.FgRed).SprintFunc()
)

// terminalSink implements logr.LogSink with a human-readable,
// optionally colorized line format, extending rstms-iso-kit's
// SimpleLogSink with terminal autodetection: color is enabled only when
// the destination is an actual terminal (isatty) wide enough to bother
// (x/term), and Windows consoles get colorable's ANSI-translating
// writer rather than losing color entirely.
type terminalSink struct {
	writer       io.Writer
	minVerbosity int
	name         string
	keyValues    []interface{}
	mutex        *sync.Mutex
	useColor     bool
}

// NewTerminalLogger builds a logr.Logger that writes colorized,
// level-filtered lines to w. verbosity follows logr's V(n) convention:
// 0 = info only, 1 = debug, 2 = trace. noColor turns color off
// regardless of autodetection (used by cmd/msictl's --no-color flag).
func NewTerminalLogger(w io.Writer, verbosity int, noColor bool) logr.Logger {
	useColor := !noColor && autoDetectColor(w)
	if f, ok := w.(*os.File); ok && useColor {
		w = colorable.NewColorable(f)
	}
	sink := &terminalSink{
		writer:       w,
		minVerbosity: verbosity,
		mutex:        &sync.Mutex{},
		useColor:     useColor,
	}
	return logr.New(sink)
}

func autoDetectColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	return err == nil && width > 0
}

func (s *terminalSink) Init(info logr.RuntimeInfo) {}

func (s *terminalSink) Enabled(level int) bool { return level <= s.minVerbosity }

func (s *terminalSink) Info(level int, msg string, keysAndValues ...interface{}) {
	if !s.Enabled(level) {
		return
	}
	s.log(false, level, msg, keysAndValues...)
}

func (s *terminalSink) Error(err error, msg string, keysAndValues ...interface{}) {
	all := append(append([]interface{}{}, keysAndValues...), "error", err)
	s.log(true, 0, msg, all...)
}

func (s *terminalSink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	return &terminalSink{
		writer:       s.writer,
		minVerbosity: s.minVerbosity,
		name:         s.name,
		keyValues:    append(append([]interface{}{}, s.keyValues...), keysAndValues...),
		mutex:        s.mutex,
		useColor:     s.useColor,
	}
}

func (s *terminalSink) WithName(name string) logr.LogSink {
	newName := name
	if s.name != "" {
		newName = s.name + "." + name
	}
	return &terminalSink{
		writer:       s.writer,
		minVerbosity: s.minVerbosity,
		name:         newName,
		keyValues:    append([]interface{}{}, s.keyValues...),
		mutex:        s.mutex,
		useColor:     s.useColor,
	}
}

func (s *terminalSink) V(level int) logr.LogSink { return s }

func (s *terminalSink) log(isError bool, level int, msg string, keysAndValues ...interface{}) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	label := s.label(isError, level)
	fullMsg := msg
	if s.name != "" {
		fullMsg = fmt.Sprintf("[%s] %s", s.name, msg)
	}
	fmt.Fprintln(s.writer, label+fullMsg)

	kv := append(append([]interface{}{}, s.keyValues...), keysAndValues...)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprintf("key%d", i/2)
		}
		fmt.Fprintf(s.writer, "  %s: %v\n", key, kv[i+1])
	}
}

func (s *terminalSink) label(isError bool, level int) string {
	if !s.useColor {
		if isError {
			return "[ERROR] "
		}
		switch level {
		case levelDebug:
			return "[DEBUG] "
		case levelTrace:
			return "[TRACE] "
		default:
			return "[INFO] "
		}
	}
	if isError {
		return errorColor("[ERROR]") + " "
	}
	switch level {
	case levelDebug:
		return debugColor("[DEBUG]") + " "
	case levelTrace:
		return traceColor("[TRACE]") + " "
	default:
		return infoColor("[INFO]") + " "
	}
}
