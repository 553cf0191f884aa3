// Package runctx replaces the reference implementation's process-wide
// singleton (GLOBALS) with an explicit value constructed once in main and
// threaded by pointer into every test runner (spec §9's redesign guidance).
// Atomic flags that lived on the singleton become fields here instead.
package runctx

import (
	"sync"
	"time"

	"go.uber.org/atomic"

	"relaytester.dev/pkg/tester/connection"
	"relaytester.dev/pkg/tester/eventgroup"
	"relaytester.dev/pkg/tester/nip11"
	"relaytester.dev/pkg/tester/runerr"
	"relaytester.dev/pkg/tester/signer"
	"relaytester.dev/pkg/utils/context"
)

// Timeouts bundles the configurable waits the suite uses; defaults match
// spec §5.
type Timeouts struct {
	Suite time.Duration // default 2s: the general per-test wait
}

func DefaultTimeouts() Timeouts {
	return Timeouts{Suite: 2 * time.Second}
}

// Context is the run-wide state every test runner receives by pointer.
type Context struct {
	RelayURL string
	Signers  signer.Set
	Conn     *connection.Connection
	Timeouts Timeouts
	ScriptMode bool

	nip11Mu  sync.Mutex
	nip11Doc *nip11.Doc
	nip11Err error

	groupMu   sync.Mutex
	group     *eventgroup.Group
	submitted atomic.Bool
	failed    atomic.Bool
}

// New constructs the run context. The connection must already be dialed.
func New(relayURL string, signers signer.Set, conn *connection.Connection, timeouts Timeouts, scriptMode bool) *Context {
	return &Context{
		RelayURL:   relayURL,
		Signers:    signers,
		Conn:       conn,
		Timeouts:   timeouts,
		ScriptMode: scriptMode,
	}
}

// FetchNip11 fetches and caches the relay information document on first
// call; subsequent calls return the cached result.
func (c *Context) FetchNip11(ctx context.T) (*nip11.Doc, error) {
	c.nip11Mu.Lock()
	defer c.nip11Mu.Unlock()
	if c.nip11Doc != nil || c.nip11Err != nil {
		return c.nip11Doc, c.nip11Err
	}
	c.nip11Doc, c.nip11Err = nip11.Fetch(ctx, c.RelayURL)
	return c.nip11Doc, c.nip11Err
}

// MaybeSubmitEventGroupA lazily builds and injects Event Group A at most
// once per run (spec §4.4), guarded by the submitted/failed atomic pair.
func (c *Context) MaybeSubmitEventGroupA(ctx context.T) (*eventgroup.Group, error) {
	if c.submitted.Load() {
		return c.group, nil
	}
	if c.failed.Load() {
		return nil, runerr.ErrPrerequisiteEventSubmissionFailed
	}

	c.groupMu.Lock()
	defer c.groupMu.Unlock()
	// re-check inside the lock: another test may have raced us here
	if c.submitted.Load() {
		return c.group, nil
	}
	if c.failed.Load() {
		return nil, runerr.ErrPrerequisiteEventSubmissionFailed
	}

	group := eventgroup.Build(c.Signers.Registered1)
	if err := eventgroup.SubmitAll(ctx, group, c.Conn, c.Signers.Registered1, c.Timeouts.Suite); err != nil {
		c.failed.Store(true)
		return nil, err
	}
	c.group = group
	c.submitted.Store(true)
	return group, nil
}

// SawOkAfterEvent reports whether the connection has ever observed an OK.
func (c *Context) SawOkAfterEvent() bool {
	return c.Conn.SawOkAfterEvent()
}
