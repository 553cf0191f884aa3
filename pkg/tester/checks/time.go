package checks

import (
	"fmt"

	"relaytester.dev/pkg/tester/outcome"
	"relaytester.dev/pkg/tester/runctx"
	"relaytester.dev/pkg/utils/context"
)

// timeLiteral posts a raw event with the given literal created_at value
// and reports whether the relay's accept/reject decision matches
// wantAccept.
func timeLiteral(ctx context.T, rc *runctx.Context, name string, createdAtLiteral string, wantAccept bool) outcome.Outcome {
	ok, reason, err := postRawRegistered1(ctx, rc, 1, createdAtLiteral, "[]", "time variant: "+name)
	if err != nil {
		return errOutcome(err)
	}
	if ok != wantAccept {
		if wantAccept {
			return outcome.Fail(fmt.Sprintf("%s: relay rejected a valid created_at (%s): %s", name, createdAtLiteral, reason))
		}
		return outcome.Fail(fmt.Sprintf("%s: relay accepted an out-of-range created_at (%s)", name, createdAtLiteral))
	}
	return outcome.Pass("")
}

func AcceptsCurrentTime(ctx context.T, rc *runctx.Context) outcome.Outcome {
	return timeLiteral(ctx, rc, "current_time", fmt.Sprintf("%d", nowUnix()), true)
}

func AcceptsRecentPast(ctx context.T, rc *runctx.Context) outcome.Outcome {
	return timeLiteral(ctx, rc, "recent_past", fmt.Sprintf("%d", nowUnix()-3600), true)
}

func AcceptsDistantPast(ctx context.T, rc *runctx.Context) outcome.Outcome {
	return timeLiteral(ctx, rc, "distant_past", "86400", true)
}

func AcceptsUnixEpoch(ctx context.T, rc *runctx.Context) outcome.Outcome {
	return timeLiteral(ctx, rc, "unix_epoch", "0", true)
}

func RejectsNegativeTime(ctx context.T, rc *runctx.Context) outcome.Outcome {
	return timeLiteral(ctx, rc, "negative_time", "-200", false)
}

func AcceptsNearFutureTime(ctx context.T, rc *runctx.Context) outcome.Outcome {
	return timeLiteral(ctx, rc, "near_future", fmt.Sprintf("%d", nowUnix()+60), true)
}

func RejectsDistantFutureTime(ctx context.T, rc *runctx.Context) outcome.Outcome {
	return timeLiteral(ctx, rc, "distant_future", fmt.Sprintf("%d", nowUnix()+315360000), false)
}

func RejectsInt32MaxPlusOne(ctx context.T, rc *runctx.Context) outcome.Outcome {
	return timeLiteral(ctx, rc, "int32_max_plus_one", "2147483648", false)
}

func RejectsInt32MaxPlusTwo(ctx context.T, rc *runctx.Context) outcome.Outcome {
	return timeLiteral(ctx, rc, "int32_max_plus_two", "2147483649", false)
}

func RejectsScientificNotation(ctx context.T, rc *runctx.Context) outcome.Outcome {
	return timeLiteral(ctx, rc, "scientific_notation", "1e+10", false)
}

func RejectsFloatingPoint(ctx context.T, rc *runctx.Context) outcome.Outcome {
	return timeLiteral(ctx, rc, "floating_point", "1700000000.5", false)
}

func RejectsNonNumeric(ctx context.T, rc *runctx.Context) outcome.Outcome {
	return timeLiteral(ctx, rc, "non_numeric", `"not-a-number"`, false)
}
