// Package vies validates EU VAT numbers against the European Commission's
// VIES registry. Lookups are advisory: a registry outage degrades the result
// instead of failing the caller.
package vies

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultEndpoint is the EC REST API base for VAT number checks.
const DefaultEndpoint = "https://ec.europa.eu/taxation_customs/vies/rest-api"

// Result is the outcome of one VAT number check.
//
// Valid is nil when no verdict was reached: either the number is outside the
// EU (Applicable=false) or the registry was unreachable (Unavailable=true).
type Result struct {
	CountryCode    string     `json:"country_code"`
	VATNumber      string     `json:"vat_number"`
	Applicable     bool       `json:"applicable"`
	Valid          *bool      `json:"valid"`
	CompanyName    string     `json:"company_name,omitempty"`
	CompanyAddress string     `json:"company_address,omitempty"`
	RequestID      string     `json:"request_id,omitempty"`
	CheckedAt      time.Time  `json:"checked_at"`
	Unavailable    bool       `json:"unavailable,omitempty"`
	Err            string     `json:"error,omitempty"`
}

// Confirmed reports whether the registry positively confirmed the number.
func (r Result) Confirmed() bool {
	return r.Valid != nil && *r.Valid
}

// Client calls the VIES REST API with a bounded timeout and caches verdicts.
type Client struct {
	endpoint    string
	httpClient  *http.Client
	cache       *Cache
	logger      *slog.Logger
	requesterCC string
	requesterNo string
	group       singleflight.Group
	now         func() time.Time
}

// Config carries the client knobs. RequesterVAT identifies the party on whose
// behalf checks are made; the registry echoes it into the request identifier.
type Config struct {
	Endpoint     string
	Timeout      time.Duration
	RequesterVAT string
}

// NewClient builds a VIES client. cache may be nil (every check goes live).
func NewClient(cfg Config, cache *Cache, logger *slog.Logger) *Client {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
		logger:     logger,
		now:        time.Now,
	}
	if cc, no, ok := Split(cfg.RequesterVAT); ok {
		c.requesterCC = cc
		c.requesterNo = no
	}
	return c
}

// Validate checks a country-prefixed VAT number (e.g. "DE811569869").
//
// Non-EU numbers short-circuit to a not-applicable result without touching
// the network. Cache hits are served as-is. Concurrent live lookups of the
// same number are collapsed into a single registry call.
func (c *Client) Validate(ctx context.Context, vatNumber string) Result {
	countryCode, number, ok := Split(vatNumber)
	if !ok || !IsEUMember(countryCode) {
		return Result{
			CountryCode: countryCode,
			VATNumber:   Sanitize(vatNumber),
			Applicable:  false,
			CheckedAt:   c.now().UTC(),
		}
	}
	if !PlausibleFormat(number) {
		invalid := false
		return Result{
			CountryCode: countryCode,
			VATNumber:   countryCode + number,
			Applicable:  true,
			Valid:       &invalid,
			Err:         "malformed VAT number",
			CheckedAt:   c.now().UTC(),
		}
	}

	key := cacheKey(countryCode, number)
	if cached, ok := c.cache.Get(ctx, key); ok {
		return cached
	}

	v, _, _ := c.group.Do(key, func() (interface{}, error) {
		result := c.checkLive(ctx, countryCode, number)
		if !result.Unavailable {
			c.cache.Set(ctx, key, result)
		}
		return result, nil
	})
	return v.(Result)
}

type checkVATRequest struct {
	CountryCode               string `json:"countryCode"`
	VATNumber                 string `json:"vatNumber"`
	RequesterMemberStateCode  string `json:"requesterMemberStateCode,omitempty"`
	RequesterNumber           string `json:"requesterNumber,omitempty"`
}

type checkVATResponse struct {
	Valid             bool   `json:"valid"`
	Name              string `json:"name"`
	Address           string `json:"address"`
	RequestIdentifier string `json:"requestIdentifier"`
}

func (c *Client) checkLive(ctx context.Context, countryCode, number string) Result {
	result := Result{
		CountryCode: countryCode,
		VATNumber:   countryCode + number,
		Applicable:  true,
		CheckedAt:   c.now().UTC(),
	}

	payload, err := json.Marshal(checkVATRequest{
		CountryCode:              countryCode,
		VATNumber:                number,
		RequesterMemberStateCode: c.requesterCC,
		RequesterNumber:          c.requesterNo,
	})
	if err != nil {
		return degraded(result, fmt.Errorf("encoding request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/check-vat-number", bytes.NewReader(payload))
	if err != nil {
		return degraded(result, fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("vies registry unreachable", "country", countryCode, "error", err)
		return degraded(result, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return degraded(result, fmt.Errorf("reading response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("vies registry error", "status", resp.StatusCode, "country", countryCode)
		return degraded(result, fmt.Errorf("registry returned HTTP %d", resp.StatusCode))
	}

	var decoded checkVATResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return degraded(result, fmt.Errorf("parsing response: %w", err))
	}

	valid := decoded.Valid
	result.Valid = &valid
	result.CompanyName = strings.TrimSpace(decoded.Name)
	result.CompanyAddress = strings.TrimSpace(decoded.Address)
	result.RequestID = decoded.RequestIdentifier
	return result
}

// degraded marks a result as inconclusive due to a registry failure. The
// caller still gets a usable Result; the error text is carried for logging
// and display only.
func degraded(r Result, err error) Result {
	r.Valid = nil
	r.Unavailable = true
	r.Err = err.Error()
	return r
}
