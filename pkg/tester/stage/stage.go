// Package stage is the ordered battery of execution phases the driver walks
// before running each phase's tests: Preauth, Registered, Stranger. Unknown
// is a fourth value that the driver does not walk.
package stage

// Stage identifies which phase of the run a TestItem belongs to. The
// zero value, Unknown, is deliberately not a runnable stage: it is not in
// Ordered, so a TestItem that was never assigned a stage is neither run nor
// reported rather than running in the wrong phase.
type Stage int

const (
	Unknown Stage = iota
	Preauth
	Registered
	Stranger
)

// Ordered is the fixed stage walk order. Not discoverable by reflection or
// iota ordering tricks on purpose -- the driver walks exactly this slice so
// the ordering is reviewable in one place.
var Ordered = []Stage{Preauth, Registered, Stranger}

func (s Stage) String() string {
	switch s {
	case Preauth:
		return "preauth"
	case Registered:
		return "registered"
	case Stranger:
		return "stranger"
	default:
		return "unknown"
	}
}
