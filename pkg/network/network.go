// Package network provides the connectivity probe that gates a run.
package network

import (
	"context"
	"io"
	"net/http"
	"time"
)

const (
	probeURL     = "https://www.google.com"
	probeTimeout = 5 * time.Second
)

// CheckInternet reports whether the host can reach the internet. The
// probe is a single GET with a bounded timeout.
func CheckInternet(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return false
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return true
}
