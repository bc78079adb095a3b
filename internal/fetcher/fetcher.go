package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/andybalholm/brotli"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"golang.org/x/net/html/charset"

	"github.com/pfrederiksen/ski-status/internal/logger"
	"github.com/pfrederiksen/ski-status/internal/metrics"
)

const (
	DefaultTimeout        = 5 * time.Second
	DefaultAcceptLanguage = "ja,en-US;q=0.8,en;q=0.6"
	MaxBodyBytes          = 5 * 1024 * 1024
)

// Named fetch outcomes
var (
	ErrTimeout     = errors.New("fetch timed out")
	ErrStatus      = errors.New("unexpected status code")
	ErrTransport   = errors.New("transport failure")
	ErrCircuitOpen = errors.New("host circuit open")
	ErrTooLarge    = errors.New("response body too large")
)

// DefaultUserAgents is the pool client identities are drawn from
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Mobile Safari/537.36",
}

// Result is the outcome of one fetch
type Result struct {
	OK         bool
	Body       string // UTF-8 decoded body, empty unless OK
	Encoding   string // detected charset name, e.g. "shift_jis"
	StatusCode int
	Err        error // wraps one of the named outcomes when !OK
}

// Options configures a Fetcher
type Options struct {
	Timeout          time.Duration
	Retries          int
	AcceptLanguage   string
	UserAgents       []string
	CloudflareBypass bool
	// BreakerFailures is the number of consecutive failures after which a host
	// is short-circuited for BreakerCooldown. 0 disables the breaker.
	BreakerFailures int
	BreakerCooldown time.Duration
	Metrics         *metrics.Metrics
	Logger          *logger.Logger
}

// Fetcher retrieves resort pages
type Fetcher struct {
	client         *resty.Client
	acceptLanguage string
	userAgents     []string
	opts           Options
	metrics        *metrics.Metrics
	log            *logger.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// New creates a Fetcher.
func New(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.AcceptLanguage == "" {
		opts.AcceptLanguage = DefaultAcceptLanguage
	}
	if len(opts.UserAgents) == 0 {
		opts.UserAgents = DefaultUserAgents
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetRetryCount(opts.Retries)
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("Accept-Encoding", "gzip, br")
	if opts.CloudflareBypass {
		// Headers are set per request, so only the TLS fingerprint is taken
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport, cloudflarebp.Options{})
	}

	return &Fetcher{
		client:         client,
		acceptLanguage: opts.AcceptLanguage,
		userAgents:     opts.UserAgents,
		opts:           opts,
		metrics:        opts.Metrics,
		log:            opts.Logger,
		breakers:       make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Fetch issues one GET for rawURL. It never returns an error; failures are
// reported through Result.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) Result {
	start := time.Now()
	res := f.fetch(ctx, rawURL)
	f.metrics.ObserveFetch(outcome(res), time.Since(start))

	if !res.OK {
		f.log.Debug("Fetch failed", logger.Fields{
			"url":         rawURL,
			"status_code": res.StatusCode,
			"error":       res.Err.Error(),
		})
	}
	return res
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) Result {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return Result{Err: fmt.Errorf("%w: invalid url %q", ErrTransport, rawURL)}
	}

	cb := f.breaker(u.Host)
	if cb == nil {
		return f.do(ctx, rawURL)
	}

	var res Result
	_, err = cb.Execute(func() (interface{}, error) {
		res = f.do(ctx, rawURL)
		if !res.OK && !errors.Is(res.Err, ErrStatus) {
			return nil, res.Err
		}
		return nil, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Result{Err: fmt.Errorf("%w: %s", ErrCircuitOpen, u.Host)}
	}
	return res
}

func (f *Fetcher) do(ctx context.Context, rawURL string) Result {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", f.userAgent()).
		SetHeader("Accept-Language", f.acceptLanguage).
		Get(rawURL)
	if err != nil {
		if isTimeout(err) {
			return Result{Err: fmt.Errorf("%w: %v", ErrTimeout, err)}
		}
		return Result{Err: fmt.Errorf("%w: %v", ErrTransport, err)}
	}

	if resp.StatusCode() != http.StatusOK {
		return Result{
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode()),
		}
	}

	raw, err := decompress(resp.Body(), resp.Header().Get("Content-Encoding"))
	if err != nil {
		return Result{
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("%w: %v", ErrTransport, err),
		}
	}
	if len(raw) > MaxBodyBytes {
		return Result{
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("%w: %d bytes", ErrTooLarge, len(raw)),
		}
	}

	body, encoding := Decode(raw, resp.Header().Get("Content-Type"))
	return Result{
		OK:         true,
		Body:       body,
		Encoding:   encoding,
		StatusCode: resp.StatusCode(),
	}
}

// Decode converts raw to UTF-8. The charset comes from a BOM, the
// Content-Type header, a meta tag, or content sniffing, in that order. Bytes
// that do not decode become U+FFFD.
func Decode(raw []byte, contentType string) (string, string) {
	enc, name, _ := charset.DetermineEncoding(raw, contentType)
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw), name
	}
	return string(decoded), name
}

// decompress undoes a brotli Content-Encoding. gzip is already handled by the
// client.
func decompress(raw []byte, contentEncoding string) ([]byte, error) {
	if !strings.EqualFold(strings.TrimSpace(contentEncoding), "br") {
		return raw, nil
	}
	r := io.LimitReader(brotli.NewReader(bytes.NewReader(raw)), MaxBodyBytes+1)
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("brotli decode: %w", err)
	}
	return out, nil
}

// userAgent picks a client identity for one request.
func (f *Fetcher) userAgent() string {
	return f.userAgents[rand.IntN(len(f.userAgents))]
}

func (f *Fetcher) breaker(host string) *gobreaker.CircuitBreaker {
	if f.opts.BreakerFailures <= 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if cb, ok := f.breakers[host]; ok {
		return cb
	}
	failures := uint32(f.opts.BreakerFailures)
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        host,
		MaxRequests: 1,
		Timeout:     f.opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.log.Info("Host circuit state changed", logger.Fields{
				"host": name,
				"from": from.String(),
				"to":   to.String(),
			})
		},
	})
	f.breakers[host] = cb
	return cb
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func outcome(res Result) string {
	switch {
	case res.OK:
		return metrics.OutcomeOK
	case errors.Is(res.Err, ErrTimeout):
		return metrics.OutcomeTimeout
	case errors.Is(res.Err, ErrStatus):
		return metrics.OutcomeStatus
	case errors.Is(res.Err, ErrCircuitOpen):
		return metrics.OutcomeCircuitOpen
	default:
		return metrics.OutcomeTransport
	}
}
