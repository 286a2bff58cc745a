package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"
)

// statusCapturingWriter wraps http.ResponseWriter to record the status
// code the proxy actually wrote, for the proxy_requests_total metric.
type statusCapturingWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusCapturingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Proxy streams a matched route's request to its downstream service
// using net/http/httputil.ReverseProxy — the Director+ErrorHandler
// shape is grounded on the faros-kedge kcp proxy in the example pack
// (internal/api/proxy.go there), generalized from a single fixed
// upstream to a per-Service random host pick (spec §4.9 "Downstream
// URI": authority = service.host.choose_host()).
//
// ReverseProxy already strips hop-by-hop headers on both legs and
// forwards the inbound request's context to the outbound RoundTrip, so
// cancellation of the inbound request propagates to the outbound call
// without extra plumbing (spec §5 "Cancellation & timeouts").
type Proxy struct {
	transport http.RoundTripper
	timeout   time.Duration
	logger    *slog.Logger
}

func NewProxy(transport http.RoundTripper, timeout time.Duration, logger *slog.Logger) *Proxy {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Proxy{transport: transport, timeout: timeout, logger: logger}
}

// ServeRoute proxies r to one random host of svc, rewriting the path to
// remainder (the portion of the inbound path after /{scope}/{service}).
// When route names a secret, it is injected as a Bearer Authorization
// header on the outbound leg only (spec §4.9 "Route catalogue":
// route.secret_name; the resolved value never reaches the inbound
// response).
func (p *Proxy) ServeRoute(w http.ResponseWriter, r *http.Request, svc Service, route Route, remainder string) {
	host := chooseHost(svc.Host)
	if host == "" {
		http.Error(w, "no downstream host configured for service", http.StatusBadGateway)
		return
	}

	target, err := url.Parse(fmt.Sprintf("%s://%s", svc.Protocol, host))
	if err != nil {
		http.Error(w, "invalid downstream host", http.StatusBadGateway)
		return
	}

	clientIP := callerIP(r)
	secret := resolveRouteSecret(svc, route)
	downstreamPath, downstreamQuery := route.downstreamPathAndQuery()

	proxy := &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			req.URL.Scheme = target.Scheme
			req.URL.Host = target.Host
			req.URL.Path = extendPath(downstreamPath, remainder)
			req.URL.RawQuery = extendQuery(downstreamQuery, req.URL.RawQuery)
			req.Host = target.Host

			if clientIP != "" {
				if prior := req.Header.Get(HeaderForwardedFor); prior != "" {
					req.Header.Set(HeaderForwardedFor, prior+", "+clientIP)
				} else {
					req.Header.Set(HeaderForwardedFor, clientIP)
				}
			}
			if secret != "" {
				req.Header.Set(HeaderAuthorization, "Bearer "+secret)
			}
		},
		Transport: p.transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			p.logger.Warn("gateway proxy upstream error", "service", svc.Name, "host", host, "error", err)
			http.Error(w, "bad gateway", http.StatusBadGateway)
		},
	}

	ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
	defer cancel()

	start := time.Now()
	capture := &statusCapturingWriter{ResponseWriter: w, status: http.StatusOK}
	proxy.ServeHTTP(capture, r.WithContext(ctx))
	observeProxyOutcome(svc.Name, capture.status, start)
}

// extendPath concatenates a route's own downstream path with the
// caller's remainder, mirroring extend_uri's
// "uri.path().to_owned() + extension.path()" (original_source's
// domain/dtos/route.rs). A route naming no downstream_url proxies the
// remainder alone, preserving prior behavior.
func extendPath(downstreamPath, remainder string) string {
	extension := "/" + strings.TrimPrefix(remainder, "/")
	if downstreamPath == "" {
		return extension
	}
	return downstreamPath + extension
}

// extendQuery joins the route's own query string with the caller's
// inbound query string, mirroring extend_uri's filter_map+join("&")
// over [uri.query(), extension.query()] (original_source's
// domain/dtos/route.rs). Either side may be empty.
func extendQuery(downstreamQuery, callerQuery string) string {
	parts := make([]string, 0, 2)
	if downstreamQuery != "" {
		parts = append(parts, downstreamQuery)
	}
	if callerQuery != "" {
		parts = append(parts, callerQuery)
	}
	return strings.Join(parts, "&")
}

// chooseHost picks a random entry from hosts (spec §4.9
// "service.host.choose_host()"). Empty input returns "".
func chooseHost(hosts []string) string {
	if len(hosts) == 0 {
		return ""
	}
	if len(hosts) == 1 {
		return hosts[0]
	}
	return hosts[rand.Intn(len(hosts))]
}

// resolveRouteSecret looks up route.SecretName in svc's already-resolved
// Secrets map (spec §4.9 "Route catalogue": route.secret_name names an
// entry in service.secrets). A route naming no secret, or naming one
// the service doesn't carry, proxies with no injected credential.
func resolveRouteSecret(svc Service, route Route) string {
	if route.SecretName == nil {
		return ""
	}
	return svc.Secrets[*route.SecretName]
}

func callerIP(r *http.Request) string {
	if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
		return r.RemoteAddr[:idx]
	}
	return r.RemoteAddr
}
