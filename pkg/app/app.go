package app

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"relaytester.dev/pkg/app/config"
	"relaytester.dev/pkg/tester/connection"
	"relaytester.dev/pkg/tester/runctx"
	"relaytester.dev/pkg/tester/signer"
	"relaytester.dev/pkg/tester/testitem"
	"relaytester.dev/pkg/utils/chk"
	"relaytester.dev/pkg/utils/context"
	"relaytester.dev/pkg/utils/log"
)

// scriptLine is one --script-mode JSON-lines row.
type scriptLine struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Stage    string `json:"stage"`
	Pass     *bool  `json:"pass"`
	Info     string `json:"info,omitempty"`
}

// Run dials the relay, builds the three signing identities, runs every
// test case in testitem.Table, and reports the results. It returns an
// error only when setup fails (loading environment overrides, building the
// signers, or the initial dial); once the suite has run it returns nil: a
// relay that fails every test is a result, not an application error.
func Run(ctx context.T, args config.RunArgs, out io.Writer) (err error) {
	timeout, err := config.SuiteTimeout(2 * time.Second)
	if chk.E(err) {
		return err
	}

	signers, err := buildSigners(args)
	if chk.E(err) {
		return err
	}

	conn, err := connection.New(ctx, args.RelayURL)
	if chk.E(err) {
		return err
	}
	defer conn.Disconnect()

	rc := runctx.New(args.RelayURL, signers, conn, runctx.Timeouts{Suite: timeout}, args.Script)

	results := testitem.Run(ctx, rc)

	if args.Script {
		writeScript(out, results)
	} else {
		writeReport(out, results)
	}
	return nil
}

func buildSigners(args config.RunArgs) (signer.Set, error) {
	var s signer.Set
	var err error
	if s.Stranger, err = signer.Generate(); chk.E(err) {
		return s, fmt.Errorf("generating stranger identity: %w", err)
	}
	if s.Registered1, err = signer.FromBech32(args.Registered1); chk.E(err) {
		return s, fmt.Errorf("decoding registered_private_key_1: %w", err)
	}
	if s.Registered2, err = signer.FromBech32(args.Registered2); chk.E(err) {
		return s, fmt.Errorf("decoding registered_private_key_2: %w", err)
	}
	return s, nil
}

func writeScript(out io.Writer, results []testitem.Result) {
	enc := json.NewEncoder(out)
	for _, r := range results {
		line := scriptLine{
			Key:      r.Item.Key,
			Name:     r.Item.Name,
			Required: r.Item.Required,
			Stage:    r.Item.Stage.String(),
			Pass:     r.Outcome.Pass,
			Info:     r.Outcome.Info,
		}
		if err := enc.Encode(line); chk.E(err) {
			log.E.Ln(err)
		}
	}
}

func writeReport(out io.Writer, results []testitem.Result) {
	passed, failed, untested := 0, 0, 0
	for _, r := range results {
		fmt.Fprintf(out, "[%-9s] %-55s %s\n", r.Item.Stage, r.Item.Name, r.Outcome.Display(r.Item.Required))
		switch {
		case r.Outcome.Pass == nil:
			untested++
		case *r.Outcome.Pass:
			passed++
		default:
			failed++
		}
	}
	fmt.Fprintf(out, "\n%d passed, %d failed, %d untested (of %d total)\n", passed, failed, untested, len(results))
}
