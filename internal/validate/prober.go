package validate

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tvforge/tvforge/internal/httpclient"
	"github.com/tvforge/tvforge/internal/models"
	"github.com/tvforge/tvforge/internal/urlutil"
)

// streamingMediaTypes lists content types a live stream endpoint may
// legitimately answer with. A present content type outside this set
// means the URL serves something other than a stream.
var streamingMediaTypes = map[string]bool{
	"application/vnd.apple.mpegurl": true,
	"application/x-mpegurl":         true,
	"audio/x-mpegurl":               true,
	"audio/mpegurl":                 true,
	"video/mp2t":                    true,
	"application/mp2t":              true,
	"application/dash+xml":          true,
	"application/octet-stream":      true,
	"binary/octet-stream":           true,
}

// streamingTypePrefixes accepts whole top-level media families.
var streamingTypePrefixes = []string{"video/", "audio/"}

// isStreamingMediaType reports whether a Content-Type header value
// belongs to the known streaming set. An absent or unparseable value
// passes: plenty of stream servers send nothing useful.
func isStreamingMediaType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return true
	}
	mediaType = strings.ToLower(mediaType)
	if streamingMediaTypes[mediaType] {
		return true
	}
	for _, prefix := range streamingTypePrefixes {
		if strings.HasPrefix(mediaType, prefix) {
			return true
		}
	}
	return false
}

// Prober issues a single reachability check: HEAD first, then a small
// range GET when the server rejects HEAD.
type Prober struct {
	client  *httpclient.Client
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewProber creates a prober with the given per-probe deadline.
func NewProber(client *httpclient.Client, timeout time.Duration, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{client: client, timeout: timeout, logger: logger, now: time.Now}
}

// Probe checks one stream URL and returns the verdict. The method
// recorded on the verdict is the one that produced the final answer.
func (p *Prober) Probe(ctx context.Context, url string) models.ValidationVerdict {
	return p.probeWithTimeout(ctx, url, p.timeout)
}

// ProbeFast is the early-validation variant with a tighter deadline,
// used to fail-fast known-bad URLs before the full pass.
func (p *Prober) ProbeFast(ctx context.Context, url string, timeout time.Duration) models.ValidationVerdict {
	return p.probeWithTimeout(ctx, url, timeout)
}

func (p *Prober) probeWithTimeout(ctx context.Context, url string, timeout time.Duration) models.ValidationVerdict {
	probeCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := p.now()
	verdict := p.attempt(probeCtx, url, http.MethodHead)

	// Servers that reject HEAD usually honor a small range request.
	if headRejected(verdict) {
		verdict = p.attempt(probeCtx, url, http.MethodGet)
	}

	verdict.Duration = p.now().Sub(start)
	verdict.CheckedAt = start
	return verdict
}

func headRejected(v models.ValidationVerdict) bool {
	return v.Outcome == models.OutcomeUnreachable &&
		(v.StatusCode == http.StatusMethodNotAllowed || v.StatusCode == http.StatusNotImplemented)
}

func (p *Prober) attempt(ctx context.Context, url, method string) models.ValidationVerdict {
	verdict := models.ValidationVerdict{URL: url, Method: method}

	var resp *http.Response
	var err error
	switch method {
	case http.MethodHead:
		resp, err = p.client.Head(ctx, url)
	default:
		resp, err = p.client.RangeGet(ctx, url, 1024)
	}
	if err != nil {
		verdict.Outcome = classifyError(err)
		verdict.Err = err.Error()
		return verdict
	}
	defer resp.Body.Close()

	verdict.StatusCode = resp.StatusCode
	verdict.ContentType = resp.Header.Get("Content-Type")

	switch {
	case resp.StatusCode < 200 || resp.StatusCode >= 400:
		verdict.Outcome = models.OutcomeUnreachable
	case !isStreamingMediaType(verdict.ContentType):
		verdict.Outcome = models.OutcomeUnreachable
		verdict.Err = "content type " + verdict.ContentType + " is not a streaming media type"
	default:
		verdict.Outcome = models.OutcomeReachable
	}

	if verdict.Outcome != models.OutcomeReachable {
		p.logger.Debug("probe rejected",
			slog.String("url", urlutil.Obfuscate(url)),
			slog.String("method", method),
			slog.Int("status", verdict.StatusCode),
			slog.String("content_type", verdict.ContentType),
		)
	}
	return verdict
}

// classifyError maps a transport error onto the failure taxonomy.
func classifyError(err error) models.ProbeOutcome {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return models.OutcomeDNSFailure
	}

	var certErr *tls.CertificateVerificationError
	var recordErr tls.RecordHeaderError
	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	if errors.As(err, &certErr) || errors.As(err, &recordErr) ||
		errors.As(err, &unknownAuthority) || errors.As(err, &hostnameErr) {
		return models.OutcomeTLSFailure
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return models.OutcomeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.OutcomeTimeout
	}

	return models.OutcomeUnreachable
}
