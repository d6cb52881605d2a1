package paypack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"makerhub-api/internal/pkg/phone"

	"github.com/google/go-querystring/query"
	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL = "https://payments.paypack.rw/api"

	// provider tokens never live longer than this, whatever expires_in says
	maxTokenLifetime = 2100 * time.Second
	// refresh a little early so an in-flight call never carries a dead token
	tokenSafetyMargin = 60 * time.Second

	DefaultTransactionTimeout = 30 * time.Second
	DefaultAuxTimeout         = 15 * time.Second

	maxBodyBytes = 1 << 20
)

// Error messages surfaced to callers in Result.Error
const (
	MsgAuthFailed      = "Authentication failed"
	MsgReauthFailed    = "Re-authentication failed"
	MsgPaymentFailed   = "Payment request failed"
	MsgCashoutFailed   = "Cashout request failed"
	MsgProviderTimeout = "Payment provider timed out. Please try again."
)

var errUnauthorized = errors.New("paypack: unauthorized")

// Config holds credentials and endpoint settings
type Config struct {
	BaseURL            string
	ClientID           string
	ClientSecret       string
	TransactionTimeout time.Duration
	AuxTimeout         time.Duration
}

// Result is the outcome of a cash-in or cash-out request.
// Transport failures are reported here, never as a Go error.
type Result struct {
	OK      bool                   `json:"ok"`
	Ref     string                 `json:"ref,omitempty"`
	Status  string                 `json:"status,omitempty"`
	Amount  decimal.Decimal        `json:"amount"`
	Error   string                 `json:"error,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Client talks to the Paypack mobile-money API
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	txTimeout    time.Duration
	auxTimeout   time.Duration

	http  *http.Client
	cache TokenCache
	now   func() time.Time

	// serialises token refreshes so concurrent callers share one authorize call
	refreshMu sync.Mutex
}

type Option func(*Client)

// WithHTTPClient replaces the underlying transport
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithClock overrides time.Now, used by tests
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient builds a client. A nil cache falls back to an in-memory one.
func NewClient(cfg Config, cache TokenCache, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TransactionTimeout <= 0 {
		cfg.TransactionTimeout = DefaultTransactionTimeout
	}
	if cfg.AuxTimeout <= 0 {
		cfg.AuxTimeout = DefaultAuxTimeout
	}
	if cache == nil {
		cache = NewMemoryTokenCache()
	}

	c := &Client{
		baseURL:      cfg.BaseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		txTimeout:    cfg.TransactionTimeout,
		auxTimeout:   cfg.AuxTimeout,
		http:         &http.Client{},
		cache:        cache,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ==================== Authentication ====================

// Authenticate returns a valid access token, fetching a new one when the
// cached token is missing or about to expire.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	if tok := c.cachedToken(ctx); tok != "" {
		return tok, nil
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// another goroutine may have refreshed while we waited
	if tok := c.cachedToken(ctx); tok != "" {
		return tok, nil
	}
	return c.authorize(ctx)
}

// refresh drops a token the provider rejected and fetches a new one.
// If another caller already replaced the stale token, that one is reused.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if tok := c.cachedToken(ctx); tok != "" && tok != stale {
		return tok, nil
	}
	if err := c.cache.Clear(ctx); err != nil {
		log.Printf("⚠️ paypack: failed to clear token cache: %v", err)
	}
	return c.authorize(ctx)
}

func (c *Client) cachedToken(ctx context.Context) string {
	tok, err := c.cache.Get(ctx)
	if err != nil {
		log.Printf("⚠️ paypack: token cache read failed: %v", err)
		return ""
	}
	if tok == nil || tok.Access == "" || !c.now().Before(tok.ExpiresAt) {
		return ""
	}
	return tok.Access
}

type authorizeRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type authorizeResponse struct {
	Access    string   `json:"access"`
	ExpiresIn *float64 `json:"expires_in"`
}

// authorize must be called with refreshMu held
func (c *Client) authorize(ctx context.Context) (string, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/auth/agents/authorize", "", authorizeRequest{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
	}, c.auxTimeout)
	if err != nil {
		return "", fmt.Errorf("paypack authorize: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("paypack authorize: unexpected status %d", status)
	}

	var res authorizeResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("paypack authorize: decode: %w", err)
	}
	if res.Access == "" {
		return "", errors.New("paypack authorize: empty access token")
	}

	lifetime := maxTokenLifetime
	if res.ExpiresIn != nil {
		if d := time.Duration(*res.ExpiresIn * float64(time.Second)); d < lifetime {
			lifetime = d
		}
	}

	token := CachedToken{
		Access:    res.Access,
		ExpiresAt: c.now().Add(lifetime - tokenSafetyMargin),
	}
	if err := c.cache.Set(ctx, token); err != nil {
		log.Printf("⚠️ paypack: token cache write failed: %v", err)
	}
	log.Printf("✅ paypack: access token refreshed, valid until %s", token.ExpiresAt.Format(time.RFC3339))
	return token.Access, nil
}

// ==================== Transactions ====================

type transactionRequest struct {
	Amount float64 `json:"amount"`
	Number string  `json:"number"`
}

type transactionResponse struct {
	Ref    string          `json:"ref"`
	Status string          `json:"status"`
	Amount decimal.Decimal `json:"amount"`
}

// CashIn asks the payer's phone to approve a collection
func (c *Client) CashIn(ctx context.Context, amount decimal.Decimal, number string) Result {
	return c.transact(ctx, "/transactions/cashin", MsgPaymentFailed, amount, number)
}

// CashOut sends money to a phone, used for refunds
func (c *Client) CashOut(ctx context.Context, amount decimal.Decimal, number string) Result {
	return c.transact(ctx, "/transactions/cashout", MsgCashoutFailed, amount, number)
}

func (c *Client) transact(ctx context.Context, path, failMsg string, amount decimal.Decimal, number string) Result {
	token, err := c.Authenticate(ctx)
	if err != nil {
		log.Printf("❌ paypack: %v", err)
		return Result{Error: MsgAuthFailed}
	}

	payload := transactionRequest{
		Amount: amount.InexactFloat64(),
		Number: phone.Normalize(number),
	}

	status, body, err := c.authorizedCall(ctx, http.MethodPost, path, token, payload, c.txTimeout)
	if err != nil {
		if errors.Is(err, errUnauthorized) {
			return Result{Error: MsgReauthFailed}
		}
		if isTimeout(err) {
			log.Printf("⚠️ paypack: %s timed out", path)
			return Result{Error: MsgProviderTimeout}
		}
		log.Printf("❌ paypack: %s failed: %v", path, err)
		return Result{Error: err.Error()}
	}

	if status != http.StatusOK {
		log.Printf("❌ paypack: %s returned %d", path, status)
		return Result{Error: failMsg, Details: decodeDetails(body)}
	}

	var res transactionResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return Result{Error: fmt.Sprintf("invalid provider response: %v", err)}
	}
	return Result{OK: true, Ref: res.Ref, Status: res.Status, Amount: res.Amount}
}

// ==================== Status ====================

type statusQuery struct {
	Ref string `url:"ref"`
}

// CheckStatus looks up a transaction by its provider reference. It returns
// the first matching transaction, the raw payload when there is none, and
// nil on any failure.
func (c *Client) CheckStatus(ctx context.Context, ref string) map[string]interface{} {
	token, err := c.Authenticate(ctx)
	if err != nil {
		log.Printf("❌ paypack: status check for %s: %v", ref, err)
		return nil
	}

	q, err := query.Values(statusQuery{Ref: ref})
	if err != nil {
		return nil
	}

	status, body, err := c.authorizedCall(ctx, http.MethodGet, "/events/transactions?"+q.Encode(), token, nil, c.auxTimeout)
	if err != nil || status != http.StatusOK {
		log.Printf("⚠️ paypack: status check for %s failed (status=%d err=%v)", ref, status, err)
		return nil
	}

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil
	}
	if txs, ok := data["transactions"].([]interface{}); ok && len(txs) > 0 {
		if first, ok := txs[0].(map[string]interface{}); ok {
			return first
		}
	}
	return data
}

// ==================== Transport ====================

// authorizedCall performs the request and, on a 401, refreshes the token and
// retries exactly once. errUnauthorized means the refresh itself failed.
func (c *Client) authorizedCall(ctx context.Context, method, path, token string, payload interface{}, timeout time.Duration) (int, []byte, error) {
	status, body, err := c.do(ctx, method, path, token, payload, timeout)
	if err != nil || status != http.StatusUnauthorized {
		return status, body, err
	}

	log.Printf("⚠️ paypack: token rejected on %s, re-authenticating", path)
	fresh, err := c.refresh(ctx, token)
	if err != nil {
		log.Printf("❌ paypack: %v", err)
		return 0, nil, errUnauthorized
	}
	return c.do(ctx, method, path, fresh, payload, timeout)
}

func (c *Client) do(ctx context.Context, method, path, token string, payload interface{}, timeout time.Duration) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

func decodeDetails(body []byte) map[string]interface{} {
	var details map[string]interface{}
	if err := json.Unmarshal(body, &details); err != nil {
		return map[string]interface{}{"body": string(body)}
	}
	return details
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
