package checks

import (
	"fmt"
	"time"

	"relaytester.dev/pkg/tester/outcome"
	"relaytester.dev/pkg/tester/runctx"
	"relaytester.dev/pkg/utils/context"
)

// jsonEdgeCase posts content as a raw event and expects the relay to
// accept it, since all of these are legal JSON string content even though
// the typed go-nostr marshaller would not reliably reproduce them
// byte-for-byte. name is used only in failure messages.
func jsonEdgeCase(ctx context.T, rc *runctx.Context, name string, content string) outcome.Outcome {
	createdAt := fmt.Sprintf("%d", time.Now().Unix())
	ok, reason, err := postRawRegistered1(ctx, rc, 1, createdAt, "[]", content)
	if err != nil {
		return errOutcome(err)
	}
	if !ok {
		return outcome.Fail(fmt.Sprintf("%s: relay rejected valid content: %s", name, reason))
	}
	return outcome.Pass("")
}

// AcceptsNip1Escapes covers the escape sequences NIP-01 explicitly lists:
// quote, backslash, and the control-character escapes.
func AcceptsNip1Escapes(ctx context.T, rc *runctx.Context) outcome.Outcome {
	return jsonEdgeCase(ctx, rc, "nip1-escapes", "quote:\" backslash:\\ newline:\n tab:\t cr:\r")
}

// AcceptsUnlistedEscapes covers JSON escapes NIP-01 doesn't specifically
// call out but standard JSON nonetheless permits, such as \b and \f.
func AcceptsUnlistedEscapes(ctx context.T, rc *runctx.Context) outcome.Outcome {
	return jsonEdgeCase(ctx, rc, "unlisted-escapes", "backspace:\b formfeed:\f")
}

// AcceptsUnicodeLiterals covers content containing non-ASCII characters
// spanning the BMP and astral planes (emoji).
func AcceptsUnicodeLiterals(ctx context.T, rc *runctx.Context) outcome.Outcome {
	return jsonEdgeCase(ctx, rc, "unicode-literals", "héllo wörld 中文 \U0001F600")
}

// AcceptsNonCharacterUtf8 covers the UTF-8 encodings of Unicode
// non-character code points (U+FDD1, U+FFFE, U+10FFFF), submitted via the
// raw path so the typed library never gets a chance to reject or rewrite
// them.
func AcceptsNonCharacterUtf8(ctx context.T, rc *runctx.Context) outcome.Outcome {
	return jsonEdgeCase(ctx, rc, "non-character-utf8", "non-characters: "+string(rune(0xFDD1))+" "+string(rune(0xFFFE))+" "+string(rune(0x10FFFF)))
}

// AcceptsEmptyTags submits an event whose tags array contains only empty
// arrays, a degenerate but legal form ("[[],[]]").
func AcceptsEmptyTags(ctx context.T, rc *runctx.Context) outcome.Outcome {
	createdAt := fmt.Sprintf("%d", time.Now().Unix())
	ok, reason, err := postRawRegistered1(ctx, rc, 1, createdAt, "[[],[]]", "empty nested tag arrays")
	if err != nil {
		return errOutcome(err)
	}
	if !ok {
		return outcome.Fail("relay rejected an event with empty nested tag arrays: " + reason)
	}
	return outcome.Pass("")
}
