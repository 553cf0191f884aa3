package checks

import (
	"fmt"
	"strings"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"relaytester.dev/pkg/tester/outcome"
	"relaytester.dev/pkg/tester/runctx"
	"relaytester.dev/pkg/tester/signer"
	"relaytester.dev/pkg/utils/context"
)

// SendsOkAfterEvent posts a plain event and expects an OK response, both
// immediately (PostEvent's own contract) and by the connection's
// already-observed-OK bookkeeping.
func SendsOkAfterEvent(ctx context.T, rc *runctx.Context) outcome.Outcome {
	ev := nostr.Event{Kind: 1, Content: "checking for OK after EVENT"}
	ok, reason, err := postTypedAsRegistered1(ctx, rc, &ev)
	if err != nil {
		return errOutcome(err)
	}
	if !ok {
		return outcome.Fail("relay rejected a plain text note: " + reason)
	}
	if !rc.Conn.SawOkAfterEvent() {
		return outcome.Fail("no OK envelope observed after EVENT")
	}
	return outcome.Pass("")
}

// VerifiesSignatures submits a raw event whose signature has been zeroed
// out and expects rejection.
func VerifiesSignatures(ctx context.T, rc *runctx.Context) outcome.Outcome {
	createdAt := fmt.Sprintf("%d", time.Now().Unix())
	id, rawJSON, err := signer.BuildRawEvent(rc.Signers.Registered1, createdAt, 1, "[]", "verifying signature rejection")
	if err != nil {
		return errOutcome(err)
	}
	tampered := zeroSigField(rawJSON)
	ok, reason, err := rc.Conn.PostRawEvent(ctx, id, tampered, rc.Timeouts.Suite)
	if err != nil {
		return errOutcome(err)
	}
	if ok {
		return outcome.Fail("relay accepted an event with an invalid signature")
	}
	return outcome.Pass(reason)
}

// VerifiesIdHashes submits an otherwise-valid raw event whose id field has
// been tampered with (and signed over) and expects rejection, since a
// correct relay recomputes the id independently.
func VerifiesIdHashes(ctx context.T, rc *runctx.Context) outcome.Outcome {
	tamperedID := "000000000000000000000000000000000000000000000000000000000000dead"
	createdAt := fmt.Sprintf("%d", time.Now().Unix())
	rawJSON, err := signer.BuildRawEventWithTamperedID(rc.Signers.Registered1, createdAt, 1, "[]", "verifying id-hash rejection", tamperedID)
	if err != nil {
		return errOutcome(err)
	}
	ok, reason, err := rc.Conn.PostRawEvent(ctx, tamperedID, rawJSON, rc.Timeouts.Suite)
	if err != nil {
		return errOutcome(err)
	}
	if ok {
		return outcome.Fail("relay accepted an event with a tampered id")
	}
	return outcome.Pass(reason)
}

// zeroSigField replaces the sig value of a raw wire event with 128 zero
// hex digits, leaving id/content untouched.
func zeroSigField(rawJSON string) string {
	idx := strings.LastIndex(rawJSON, `"sig":"`)
	if idx < 0 {
		return rawJSON
	}
	start := idx + len(`"sig":"`)
	end := strings.Index(rawJSON[start:], `"`)
	if end < 0 {
		return rawJSON
	}
	zero := strings.Repeat("0", 128)
	return rawJSON[:start] + zero + rawJSON[start+end:]
}
