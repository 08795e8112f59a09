package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// HeaderProvider allows injecting per-request headers (auth tokens).
type HeaderProvider func() map[string]string

// HTTP talks to an external wallet service:
//
//	POST /debit   {"player","amount","ref"}  402 when the balance is short
//	POST /credit  {"player","amount","ref"}
//	GET  /balance/{player} -> {"player","balance"}
//
// Requests are retried on transport errors and 5xx; the reference makes the
// retry safe.
type HTTP struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*HTTP)

func WithTimeout(d time.Duration) Option {
	return func(c *HTTP) { c.defaultTimeout = d }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *HTTP) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *HTTP) { c.retryMax = max }
}

// WithDial replaces the dialer, e.g. with an in-memory listener.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *HTTP) { c.http.Dial = dial }
}

func NewHTTP(baseURL string, opts ...Option) *HTTP {
	c := &HTTP{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second, MaxConnsPerHost: 32},
		defaultTimeout: 5 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type mutation struct {
	Player string `json:"player"`
	Amount int64  `json:"amount"`
	Ref    string `json:"ref"`
}

type balanceResponse struct {
	Player  string `json:"player"`
	Balance int64  `json:"balance"`
}

func (c *HTTP) Debit(ctx context.Context, player string, amount int64, ref string) error {
	if err := checkArgs(player, amount, ref); err != nil {
		return err
	}
	return c.doJSON(ctx, fasthttp.MethodPost, "/debit", mutation{Player: player, Amount: amount, Ref: ref}, nil)
}

func (c *HTTP) Credit(ctx context.Context, player string, amount int64, ref string) error {
	if err := checkArgs(player, amount, ref); err != nil {
		return err
	}
	return c.doJSON(ctx, fasthttp.MethodPost, "/credit", mutation{Player: player, Amount: amount, Ref: ref}, nil)
}

func (c *HTTP) Balance(ctx context.Context, player string) (int64, error) {
	if strings.TrimSpace(player) == "" {
		return 0, fmt.Errorf("%w: player required", ErrInvalidAccount)
	}
	var out balanceResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/balance/"+url.PathEscape(player), nil, &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

// StatusError is a non-2xx reply from the wallet service.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wallet api error: status=%d body=%s", e.Status, e.Body)
}

// Temporary reports whether the request may succeed when repeated.
func (e *StatusError) Temporary() bool {
	switch e.Status {
	case fasthttp.StatusInternalServerError, fasthttp.StatusBadGateway,
		fasthttp.StatusServiceUnavailable, fasthttp.StatusGatewayTimeout:
		return true
	}
	return false
}

const maxErrorBody = 512

func (c *HTTP) doJSON(ctx context.Context, method, path string, in any, out any) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = b
	}

	attempts := max(c.retryMax, 1)
	var err error
	for attempt := 1; ; attempt++ {
		err = c.roundTrip(ctx, method, path, body, out)
		var se *StatusError
		if err == nil || (errors.As(err, &se) && !se.Temporary()) || errors.Is(err, ErrInsufficientFunds) {
			return err
		}
		if attempt >= attempts {
			return err
		}
		wait := time.NewTimer(backoff(attempt))
		select {
		case <-ctx.Done():
			wait.Stop()
			return err
		case <-wait.C:
		}
	}
}

// roundTrip performs one request. Transport failures come back wrapped;
// 402 maps to ErrInsufficientFunds and other non-2xx replies to *StatusError.
func (c *HTTP) roundTrip(ctx context.Context, method, path string, body []byte, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	if body != nil {
		req.SetBody(body)
	}

	deadline := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("wallet request failed: %w", err)
	}

	status := resp.StatusCode()
	if status == fasthttp.StatusPaymentRequired {
		return fmt.Errorf("%w: %s", ErrInsufficientFunds, clip(resp.Body()))
	}
	if status < 200 || status >= 300 {
		return &StatusError{Status: status, Body: clip(resp.Body())}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// backoff doubles from 50ms, capped at 1.6s.
func backoff(attempt int) time.Duration {
	attempt = min(max(attempt, 1), 6)
	return time.Duration(1<<(attempt-1)) * 50 * time.Millisecond
}

func clip(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(b)
}
