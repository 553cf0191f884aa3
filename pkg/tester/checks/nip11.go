package checks

import (
	"fmt"

	"relaytester.dev/pkg/tester/outcome"
	"relaytester.dev/pkg/tester/runctx"
	"relaytester.dev/pkg/utils/context"
)

// Nip11Provided passes iff the relay information document fetches and
// parses successfully.
func Nip11Provided(ctx context.T, rc *runctx.Context) outcome.Outcome {
	doc, err := rc.FetchNip11(ctx)
	if err != nil {
		return outcome.Fail(err.Error())
	}
	return outcome.Pass(fmt.Sprintf("name=%q software=%q", doc.Name, doc.Software))
}

// claimedSupportForNip scans supported_nips for n.
func claimedSupportForNip(ctx context.T, rc *runctx.Context, n int) outcome.Outcome {
	doc, err := rc.FetchNip11(ctx)
	if err != nil {
		return errOutcome(err)
	}
	if doc.SupportsNip(n) {
		return outcome.Pass("")
	}
	return outcome.Fail(fmt.Sprintf("NIP %d not listed in supported_nips", n))
}

func ClaimsNip1(ctx context.T, rc *runctx.Context) outcome.Outcome  { return claimedSupportForNip(ctx, rc, 1) }
func ClaimsNip9(ctx context.T, rc *runctx.Context) outcome.Outcome  { return claimedSupportForNip(ctx, rc, 9) }
func ClaimsNip11(ctx context.T, rc *runctx.Context) outcome.Outcome { return claimedSupportForNip(ctx, rc, 11) }
func ClaimsNip42(ctx context.T, rc *runctx.Context) outcome.Outcome { return claimedSupportForNip(ctx, rc, 42) }
func ClaimsNip70(ctx context.T, rc *runctx.Context) outcome.Outcome { return claimedSupportForNip(ctx, rc, 70) }
