package paypack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	authCalls    int32
	cashinCalls  int32
	statusCalls  int32
	authStatus   int
	expiresIn    float64
	rejectFirstN int32 // cashin answers 401 this many times
	cashinDelay  time.Duration
	lastBody     map[string]interface{}
	mu           sync.Mutex
}

func (f *fakeProvider) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/agents/authorize", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&f.authCalls, 1)
		if f.authStatus != 0 && f.authStatus != http.StatusOK {
			w.WriteHeader(f.authStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access":     "token-" + string(rune('0'+n)),
			"expires_in": f.expiresIn,
		})
	})
	mux.HandleFunc("/transactions/cashin", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&f.cashinCalls, 1)
		if f.cashinDelay > 0 {
			time.Sleep(f.cashinDelay)
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.lastBody = body
		f.mu.Unlock()

		if n <= f.rejectFirstN {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"unauthorized"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ref": "abc-123", "status": "pending", "amount": body["amount"],
		})
	})
	mux.HandleFunc("/transactions/cashout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"insufficient balance"}`))
	})
	mux.HandleFunc("/events/transactions", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.statusCalls, 1)
		ref := r.URL.Query().Get("ref")
		if ref == "missing" {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"transactions": []interface{}{}, "total": 0})
			return
		}
		if ref == "broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"transactions": []interface{}{
				map[string]interface{}{"data": map[string]interface{}{"ref": ref, "status": "successful"}},
			},
		})
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeProvider, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	if f.expiresIn == 0 {
		f.expiresIn = 900
	}
	return NewClient(Config{BaseURL: srv.URL, ClientID: "id", ClientSecret: "secret"}, nil, opts...)
}

func TestCashIn_Success(t *testing.T) {
	f := &fakeProvider{}
	c := newTestClient(t, f)

	res := c.CashIn(context.Background(), decimal.NewFromInt(1500), "+250 788-123-456")

	require.True(t, res.OK, res.Error)
	assert.Equal(t, "abc-123", res.Ref)
	assert.Equal(t, "pending", res.Status)
	assert.True(t, res.Amount.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, "0788123456", f.lastBody["number"])
	assert.Equal(t, float64(1500), f.lastBody["amount"])
}

func TestAuthenticate_CachesToken(t *testing.T) {
	f := &fakeProvider{}
	c := newTestClient(t, f)
	ctx := context.Background()

	c.CashIn(ctx, decimal.NewFromInt(100), "0788000000")
	c.CashIn(ctx, decimal.NewFromInt(100), "0788000000")

	assert.EqualValues(t, 1, atomic.LoadInt32(&f.authCalls))
	assert.EqualValues(t, 2, atomic.LoadInt32(&f.cashinCalls))
}

func TestAuthenticate_CapsLifetime(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := &fakeProvider{expiresIn: 100000}
	cache := NewMemoryTokenCache()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	c := NewClient(Config{BaseURL: srv.URL}, cache, WithClock(func() time.Time { return base }))

	_, err := c.Authenticate(context.Background())
	require.NoError(t, err)

	tok, _ := cache.Get(context.Background())
	require.NotNil(t, tok)
	assert.Equal(t, base.Add(2100*time.Second-60*time.Second), tok.ExpiresAt)
}

func TestAuthenticate_ExpiredTokenRefetched(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := &fakeProvider{expiresIn: 300}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	c := NewClient(Config{BaseURL: srv.URL}, nil, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	first, err := c.Authenticate(ctx)
	require.NoError(t, err)

	// 300s lifetime minus the 60s margin
	clock = clock.Add(241 * time.Second)
	second, err := c.Authenticate(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.EqualValues(t, 2, atomic.LoadInt32(&f.authCalls))
}

func TestAuthenticate_ConcurrentCallersShareOneRefresh(t *testing.T) {
	f := &fakeProvider{}
	c := newTestClient(t, f)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Authenticate(context.Background())
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&f.authCalls))
}

func TestCashIn_AuthFailure(t *testing.T) {
	f := &fakeProvider{authStatus: http.StatusForbidden}
	c := newTestClient(t, f)

	res := c.CashIn(context.Background(), decimal.NewFromInt(100), "0788000000")

	assert.False(t, res.OK)
	assert.Equal(t, MsgAuthFailed, res.Error)
	assert.EqualValues(t, 0, atomic.LoadInt32(&f.cashinCalls))
}

func TestCashIn_RetriesOnceAfter401(t *testing.T) {
	f := &fakeProvider{rejectFirstN: 1}
	c := newTestClient(t, f)

	res := c.CashIn(context.Background(), decimal.NewFromInt(100), "0788000000")

	require.True(t, res.OK, res.Error)
	assert.EqualValues(t, 2, atomic.LoadInt32(&f.authCalls))
	assert.EqualValues(t, 2, atomic.LoadInt32(&f.cashinCalls))
}

func TestCashIn_SecondUnauthorizedIsNotRetried(t *testing.T) {
	f := &fakeProvider{rejectFirstN: 5}
	c := newTestClient(t, f)

	res := c.CashIn(context.Background(), decimal.NewFromInt(100), "0788000000")

	assert.False(t, res.OK)
	assert.Equal(t, MsgPaymentFailed, res.Error)
	assert.Equal(t, "unauthorized", res.Details["message"])
	assert.EqualValues(t, 2, atomic.LoadInt32(&f.cashinCalls))
}

func TestCashIn_ReauthFailure(t *testing.T) {
	f := &fakeProvider{rejectFirstN: 1}
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.Authenticate(ctx)
	require.NoError(t, err)
	// provider now refuses new tokens
	f.authStatus = http.StatusInternalServerError

	res := c.CashIn(ctx, decimal.NewFromInt(100), "0788000000")
	assert.False(t, res.OK)
	assert.Equal(t, MsgReauthFailed, res.Error)
}

func TestCashOut_FailureCarriesDetails(t *testing.T) {
	f := &fakeProvider{}
	c := newTestClient(t, f)

	res := c.CashOut(context.Background(), decimal.NewFromInt(100), "0788000000")

	assert.False(t, res.OK)
	assert.Equal(t, MsgCashoutFailed, res.Error)
	assert.Equal(t, "insufficient balance", res.Details["message"])
}

func TestCashIn_Timeout(t *testing.T) {
	f := &fakeProvider{expiresIn: 900, cashinDelay: 200 * time.Millisecond}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	c := NewClient(Config{BaseURL: srv.URL, TransactionTimeout: 20 * time.Millisecond}, nil)

	res := c.CashIn(context.Background(), decimal.NewFromInt(100), "0788000000")

	assert.False(t, res.OK)
	assert.Equal(t, MsgProviderTimeout, res.Error)
}

func TestCheckStatus(t *testing.T) {
	f := &fakeProvider{}
	c := newTestClient(t, f)
	ctx := context.Background()

	first := c.CheckStatus(ctx, "abc-123")
	require.NotNil(t, first)
	data, ok := first["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "abc-123", data["ref"])

	whole := c.CheckStatus(ctx, "missing")
	require.NotNil(t, whole)
	assert.Contains(t, whole, "transactions")

	assert.Nil(t, c.CheckStatus(ctx, "broken"))
}

func TestCheckStatus_NilWhenAuthFails(t *testing.T) {
	f := &fakeProvider{authStatus: http.StatusUnauthorized}
	c := newTestClient(t, f)

	assert.Nil(t, c.CheckStatus(context.Background(), "abc-123"))
	assert.EqualValues(t, 0, atomic.LoadInt32(&f.statusCalls))
}
