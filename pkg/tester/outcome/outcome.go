// Package outcome is the per-test result record: a tri-state pass flag
// (pass / fail / untested), an optional one-line message, and the range of
// subscription ordinals the test allocated (useful when debugging which
// REQs a failing test opened).
package outcome

import "github.com/fatih/color"

// Outcome is the result of running one TestItem.
type Outcome struct {
	// Pass is nil for untested/errored, true for pass, false for fail.
	Pass *bool
	// Info is an optional one-line explanation.
	Info string
	// SubIDsFrom/SubIDsTo is the half-open range [From, To) of
	// subscription ordinals allocated on the connection during the test.
	SubIDsFrom, SubIDsTo int
}

func boolp(b bool) *bool { return &b }

// Pass builds a passing outcome.
func Pass(info string) Outcome { return Outcome{Pass: boolp(true), Info: info} }

// Fail builds a failing outcome.
func Fail(info string) Outcome { return Outcome{Pass: boolp(false), Info: info} }

// Err builds an untested/errored outcome (pass is unknown, not false).
func Err(info string) Outcome { return Outcome{Pass: nil, Info: info} }

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	grey   = color.New(color.FgHiBlack).SprintFunc()
)

// Display renders the outcome the way the human-readable (non --script)
// report does: required tests get PASS/FAIL, optional ones get YES/NO, both
// fall back to UNTESTED when Pass is nil.
func (o Outcome) Display(required bool) string {
	label := labelFor(o.Pass, required)
	if o.Info == "" {
		return label
	}
	return label + " (" + o.Info + ")"
}

func labelFor(pass *bool, required bool) string {
	switch {
	case pass == nil:
		return grey("UNTESTED")
	case *pass && required:
		return green("PASS")
	case *pass && !required:
		return green("YES")
	case !*pass && required:
		return red("FAIL")
	default:
		return yellow("NO")
	}
}
