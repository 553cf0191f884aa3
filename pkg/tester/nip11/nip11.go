// Package nip11 fetches and parses a relay's information document (NIP-11):
// a single out-of-band HTTP GET, explicitly named in spec §1 as the one
// documented HTTP collaborator the core consumes.
package nip11

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"relaytester.dev/pkg/tester/connection"
	"relaytester.dev/pkg/tester/runerr"
	"relaytester.dev/pkg/utils/context"
)

// Doc is the subset of the NIP-11 document the test suite inspects.
type Doc struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Pubkey        string `json:"pubkey"`
	Contact       string `json:"contact"`
	SupportedNIPs []int  `json:"supported_nips"`
	Software      string `json:"software"`
	Version       string `json:"version"`
}

// SupportsNip reports whether n appears in the document's supported_nips.
func (d *Doc) SupportsNip(n int) bool {
	if d == nil {
		return false
	}
	for _, v := range d.SupportedNIPs {
		if v == n {
			return true
		}
	}
	return false
}

const timeout = 60 * time.Second

// Fetch performs the scheme-swapped GET and parses the JSON body.
func Fetch(ctx context.T, relayURL string) (*Doc, error) {
	url := connection.HostAndScheme(relayURL)

	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, runerr.Http(err)
	}
	req.Header.Set("Accept", "application/nostr+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, runerr.Http(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, runerr.Http(err)
	}

	var doc Doc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, runerr.Json(err)
	}
	return &doc, nil
}
