// Package webhook implements the outbox dispatcher worker loop (spec
// §4.8): fetch pending/failed artifacts, fan the payload out to every
// active webhook registered for the artifact's trigger, and persist the
// per-target responses plus the rolled-up artifact status.
//
// The worker loop shape is grounded on the teacher's
// internal/mailer/queue.go outbox-polling pattern, generalized from a
// single-provider email send to a concurrent multi-target HTTP fan-out.
package webhook

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/mycelium-platform/mycelium/internal/cryptox"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"golang.org/x/time/rate"
)

// Target pairs a registered WebHook with its decrypted credential, ready
// for dispatch. Decryption happens once per batch, not once per attempt.
type Target struct {
	Hook   domain.WebHook
	Secret *domain.HttpSecret
}

// Dispatcher sends one artifact's payload to every matching target and
// collects the responses. It has no knowledge of the outbox; Worker owns
// the fetch/persist loop around it.
//
// Outbound pacing is per-target-host (x/time/rate), grounded on the
// teacher's internal/api/middleware/ratelimit.go IP-bucket shape: a
// single flaky receiver retried every poll sweep must not be able to
// starve requests to every other receiver.
type Dispatcher struct {
	client        *http.Client
	box           *cryptox.SecretBox
	ratePerSecond float64

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewDispatcher(client *http.Client, box *cryptox.SecretBox, ratePerSecond float64) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if ratePerSecond <= 0 {
		ratePerSecond = 5
	}
	return &Dispatcher{client: client, box: box, ratePerSecond: ratePerSecond, limiters: make(map[string]*rate.Limiter)}
}

func (d *Dispatcher) limiterForHost(rawURL string) *rate.Limiter {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(d.ratePerSecond), int(d.ratePerSecond)+1)
		d.limiters[host] = l
	}
	return l
}

// DecryptSecret turns a WebHook's stored ciphertext into an in-memory
// HttpSecret, or returns (nil, nil) for unauthenticated targets (spec
// §4.8 step 3: secret is optional per target).
func (d *Dispatcher) DecryptSecret(hook domain.WebHook) (*domain.HttpSecret, error) {
	if hook.SecretEnc == nil || *hook.SecretEnc == "" {
		return nil, nil
	}
	plain, err := d.box.Decrypt(*hook.SecretEnc)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt webhook secret for %s: %w", hook.ID, err)
	}
	var secret domain.HttpSecret
	if err := decodeSecretJSON(plain, &secret); err != nil {
		return nil, fmt.Errorf("failed to decode webhook secret for %s: %w", hook.ID, err)
	}
	return &secret, nil
}

// DispatchOne sends the artifact's payload to a single target and
// returns the recorded response (spec §4.8 step 4). A transport-level
// failure (no response at all) is reported as status 0.
func (d *Dispatcher) DispatchOne(ctx context.Context, target Target, artifact domain.WebHookPayloadArtifact) domain.HookResponse {
	if err := d.limiterForHost(target.Hook.URL).Wait(ctx); err != nil {
		return domain.HookResponse{URL: target.Hook.URL, Status: 0, Body: strPtr(fmt.Sprintf("rate limiter wait failed: %v", err))}
	}

	payload, err := base64.StdEncoding.DecodeString(artifact.PayloadB64)
	if err != nil {
		return domain.HookResponse{URL: target.Hook.URL, Status: 0, Body: strPtr(fmt.Sprintf("bad payload encoding: %v", err))}
	}

	method := domain.HTTPMethodForTrigger(artifact.Trigger)
	targetURL := target.Hook.URL

	if target.Secret != nil && target.Secret.Kind == domain.AuthInjectionQuery {
		targetURL = appendQueryParam(targetURL, target.Secret.QueryName, target.Secret.Token)
	}

	req, err := http.NewRequestWithContext(ctx, method, targetURL, bytes.NewReader(payload))
	if err != nil {
		return domain.HookResponse{URL: target.Hook.URL, Status: 0, Body: strPtr(fmt.Sprintf("bad request: %v", err))}
	}
	req.Header.Set("Content-Type", "application/json")

	if target.Secret != nil && target.Secret.Kind == domain.AuthInjectionHeader {
		req.Header.Set(target.Secret.HeaderName, target.Secret.Prefix+target.Secret.Token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return domain.HookResponse{URL: target.Hook.URL, Status: 0, Body: strPtr(fmt.Sprintf("transport error: %v", err))}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	bodyStr := string(body)
	return domain.HookResponse{URL: target.Hook.URL, Status: resp.StatusCode, Body: &bodyStr}
}

func strPtr(s string) *string { return &s }
