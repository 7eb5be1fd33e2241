package auth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dijam/media-gallery/internal/metrics"
)

// Verifier asks the identity service whether a token is still live
// (signed by it, not revoked, user not deleted).
type Verifier interface {
	Verify(ctx context.Context, token string) bool
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, token string) bool

// Verify calls f(ctx, token).
func (f VerifierFunc) Verify(ctx context.Context, token string) bool { return f(ctx, token) }

// verifiedMessage is the marker the identity service returns for a live token.
const verifiedMessage = "Token verified"

// Verification outcomes, used as metric labels.
const (
	outcomeVerified = "verified"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// HTTPVerifier verifies tokens against the remote identity service.
// Every failure mode, transport errors included, reads as "not verified".
type HTTPVerifier struct {
	url     string           // verification endpoint
	hc      *http.Client     // client with dial and request timeouts
	metrics *metrics.Metrics // verification outcome counters
}

// NewHTTPVerifier creates a verifier that POSTs tokens to url. Calls are bounded
// by timeout and are never retried.
func NewHTTPVerifier(url string, timeout time.Duration) *HTTPVerifier {
	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: 2 * time.Second}).DialContext,
	}

	return &HTTPVerifier{
		url:     url,
		hc:      &http.Client{Transport: transport, Timeout: timeout},
		metrics: metrics.NewMetrics(),
	}
}

// Verify reports whether the identity service confirmed the token.
func (v *HTTPVerifier) Verify(ctx context.Context, token string) bool {
	start := time.Now()
	outcome := v.verify(ctx, token)
	v.metrics.TokenVerificationTotal.WithLabelValues(outcome).Inc()
	v.metrics.TokenVerificationDuration.Observe(time.Since(start).Seconds())
	return outcome == outcomeVerified
}

func (v *HTTPVerifier) verify(ctx context.Context, token string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, strings.NewReader("{}"))
	if err != nil {
		slog.Error("failed to build token verification request", "error", err)
		return outcomeError
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.hc.Do(req)
	if err != nil {
		slog.Warn("token verification call failed", "error", err)
		return outcomeError
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("token verification refused", "status", resp.StatusCode)
		return outcomeRejected
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil {
		slog.Warn("token verification returned an unreadable body", "error", err)
		return outcomeError
	}
	if body.Message != verifiedMessage {
		slog.Debug("token verification refused", "message", body.Message)
		return outcomeRejected
	}
	return outcomeVerified
}
