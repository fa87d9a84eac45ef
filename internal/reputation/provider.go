package reputation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	// ErrUnexpectedStatus is returned when the provider answers with a non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected reputation provider status")
	// ErrLookupRejected is returned when the provider reports an unsuccessful lookup.
	ErrLookupRejected = errors.New("reputation provider rejected lookup")
	// ErrRateLimited is returned when the local request budget is exhausted.
	ErrRateLimited = errors.New("reputation lookup rate limit exceeded")
)

// DefaultBaseURL is the IPQualityScore JSON endpoint.
const DefaultBaseURL = "https://ipqualityscore.com/api/json/ip"

// maxResponseBytes bounds how much of a provider response is read.
const maxResponseBytes = 64 << 10

// Result holds the flags returned by a reputation lookup.
type Result struct {
	Proxy bool `json:"proxy"`
	VPN   bool `json:"vpn"`
	Tor   bool `json:"tor"`
}

// Flagged reports whether the address is a proxy, VPN or Tor exit.
func (r Result) Flagged() bool {
	return r.Proxy || r.VPN || r.Tor
}

// Provider looks up the reputation of an address.
type Provider interface {
	Lookup(ctx context.Context, ip string) (Result, error)
}

// ProviderConfig configures the IPQualityScore client.
type ProviderConfig struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	BreakerFailures   uint32
	BreakerCooldown   time.Duration
}

// lookupResponse is the subset of the provider payload we read.
type lookupResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Result
}

// IPQualityScore queries the IPQualityScore IP reputation API.
// Requests are rate limited locally and guarded by a circuit breaker.
type IPQualityScore struct {
	client  *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[Result]
	logger  *zap.Logger
}

// NewIPQualityScore creates a provider client.
func NewIPQualityScore(cfg ProviderConfig, logger *zap.Logger) *IPQualityScore {
	logger = logger.Named("ipqs")

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(cfg.Burst, 1))
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[Result](gobreaker.Settings{
		Name:        "ipqualityscore",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Reputation provider circuit changed state",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &IPQualityScore{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		limiter: limiter,
		breaker: breaker,
		logger:  logger,
	}
}

// Lookup fetches the reputation flags for an address.
func (p *IPQualityScore) Lookup(ctx context.Context, ip string) (Result, error) {
	if p.limiter != nil && !p.limiter.Allow() {
		return Result{}, ErrRateLimited
	}

	return p.breaker.Execute(func() (Result, error) {
		return p.fetch(ctx, ip)
	})
}

// fetch performs a single HTTP lookup.
func (p *IPQualityScore) fetch(ctx context.Context, ip string) (Result, error) {
	endpoint := fmt.Sprintf("%s/%s/%s?strictness=1&allow_public_access_points=true",
		p.baseURL, url.PathEscape(p.apiKey), url.PathEscape(ip))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build reputation request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		// The request URL carries the API key, keep it out of logs
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return Result{}, fmt.Errorf("reputation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{}, fmt.Errorf("failed to read reputation response: %w", err)
	}

	var payload lookupResponse
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return Result{}, fmt.Errorf("failed to decode reputation response: %w", err)
	}

	if payload.Success != nil && !*payload.Success {
		return Result{}, fmt.Errorf("%w: %s", ErrLookupRejected, payload.Message)
	}

	return payload.Result, nil
}
