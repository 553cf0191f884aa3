// Package log is a small leveled-logging facade. Each level is a value with
// two call shapes: Ln (space-joined, like fmt.Println) and F (printf-style).
// Output goes to stderr so stdout stays clean for --script mode's JSON
// result lines.
package log

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/fatih/color"
)

// Level orders the verbosity levels from quietest to loudest.
type Level int32

const (
	Off Level = iota
	Fatal
	Error
	Warn
	Info
	Debug
	Trace
)

var current atomic.Int32

func init() {
	current.Store(int32(Info))
}

// SetLevel raises or lowers the minimum level that is actually printed.
func SetLevel(l Level) { current.Store(int32(l)) }

func enabled(l Level) bool { return Level(current.Load()) >= l }

type logger struct {
	level  Level
	prefix string
	paint  func(a ...interface{}) string
}

func (g logger) Ln(a ...interface{}) {
	if !enabled(g.level) {
		return
	}
	fmt.Fprintln(os.Stderr, g.paint(g.prefix)+" "+fmt.Sprintln(a...))
	if g.level == Fatal {
		os.Exit(1)
	}
}

func (g logger) F(format string, a ...interface{}) {
	if !enabled(g.level) {
		return
	}
	fmt.Fprintln(os.Stderr, g.paint(g.prefix)+" "+fmt.Sprintf(format, a...))
	if g.level == Fatal {
		os.Exit(1)
	}
}

var (
	// F is fatal: logs then exits the process.
	F = logger{Fatal, "FTL", color.New(color.FgRed, color.Bold).SprintFunc()}
	// E is error level.
	E = logger{Error, "ERR", color.New(color.FgRed).SprintFunc()}
	// W is warn level.
	W = logger{Warn, "WRN", color.New(color.FgYellow).SprintFunc()}
	// I is info level.
	I = logger{Info, "INF", color.New(color.FgCyan).SprintFunc()}
	// D is debug level.
	D = logger{Debug, "DBG", color.New(color.FgMagenta).SprintFunc()}
	// T is trace level, for routine/expected errors (timeouts, etc).
	T = logger{Trace, "TRC", color.New(color.FgWhite).SprintFunc()}
)
