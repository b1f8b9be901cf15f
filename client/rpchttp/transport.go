/*
Package rpchttp implements the client.Transport capability over a chain
node's JSON-RPC HTTP endpoint, using the abci_query method. Transient
failures (connection errors, timeouts, HTTP 429 and 5xx) are retried with
exponential backoff before being reported as retryable transport errors;
everything else is permanent.
*/
package rpchttp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/blackoreo/namwatch/client"
	"github.com/blackoreo/namwatch/observability"
)

const (
	defaultRetries        = 3
	defaultBackoff        = 300 * time.Millisecond
	defaultRequestTimeout = 30 * time.Second

	// responses are small (storage values); cap reads to catch a
	// misconfigured endpoint streaming garbage
	maxResponseSize = 8 << 20
)

type Option func(*Transport)

// WithHTTPClient overrides the HTTP client, eg to set a proxy or TLS
// configuration.
func WithHTTPClient(hc *http.Client) Option {
	return func(t *Transport) { t.hc = hc }
}

// WithRetry overrides the retry budget: n additional attempts after the
// first, with exponential backoff starting at the given delay.
func WithRetry(n int, backoff time.Duration) Option {
	return func(t *Transport) {
		t.retries = n
		t.backoff = backoff
	}
}

type Transport struct {
	url     string
	hc      *http.Client
	retries int
	backoff time.Duration
	log     *slog.Logger

	queryCnt metric.Int64Counter
	queryDur metric.Float64Histogram
	retryCnt metric.Int64Counter
}

func New(nodeURL string, observe observability.Observability, opts ...Option) (*Transport, error) {
	if nodeURL == "" {
		return nil, fmt.Errorf("node URL is required")
	}
	t := &Transport{
		url:     nodeURL,
		hc:      &http.Client{Timeout: defaultRequestTimeout},
		retries: defaultRetries,
		backoff: defaultBackoff,
		log:     observe.Logger(),
	}
	for _, opt := range opts {
		opt(t)
	}

	m := observe.Meter("rpchttp")
	var err error
	if t.queryCnt, err = m.Int64Counter("query.count", metric.WithDescription("Number of ABCI queries sent")); err != nil {
		return nil, fmt.Errorf("creating counter for queries: %w", err)
	}
	if t.queryDur, err = m.Float64Histogram("query.time",
		metric.WithDescription("How long the ABCI query round trip took, retries included"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating histogram for query time: %w", err)
	}
	if t.retryCnt, err = m.Int64Counter("query.retries", metric.WithDescription("Number of retried ABCI queries")); err != nil {
		return nil, fmt.Errorf("creating counter for retries: %w", err)
	}
	return t, nil
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Method  string          `json:"method"`
	Params  abciQueryParams `json:"params"`
}

type abciQueryParams struct {
	Path   string `json:"path"`
	Data   string `json:"data"`
	Height string `json:"height"`
	Prove  bool   `json:"prove"`
}

type rpcResponse struct {
	Error  *rpcError        `json:"error"`
	Result *abciQueryResult `json:"result"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s %s", e.Code, e.Message, e.Data)
}

type abciQueryResult struct {
	Response abciResponse `json:"response"`
}

type abciResponse struct {
	Code  uint32 `json:"code"`
	Log   string `json:"log"`
	Info  string `json:"info"`
	Value string `json:"value"`
}

/*
RawQuery implements client.Transport. The returned bytes are the raw
storage value; a present key with an empty value and an absent key are
both returned as empty bytes, distinguishing them is the decoder's job.
*/
func (t *Transport) RawQuery(ctx context.Context, path string, data []byte, height uint64) (value []byte, err error) {
	defer func(start time.Time) {
		attrs := metric.WithAttributeSet(attribute.NewSet(attribute.String("path", path), observability.ErrStatus(err)))
		t.queryCnt.Add(ctx, 1, attrs)
		t.queryDur.Record(ctx, time.Since(start).Seconds(), attrs)
	}(time.Now())

	var lastErr error
	for attempt := 0; attempt <= t.retries; attempt++ {
		if attempt > 0 {
			t.retryCnt.Add(ctx, 1)
			select {
			case <-ctx.Done():
				return nil, client.RetryableError(ctx.Err())
			case <-time.After(t.backoff << (attempt - 1)):
			}
			t.log.DebugContext(ctx, fmt.Sprintf("retrying ABCI query %s, attempt %d", path, attempt))
		}

		value, err := t.query(ctx, path, data, height)
		if err == nil {
			return value, nil
		}
		if !client.IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (t *Transport) query(ctx context.Context, path string, data []byte, height uint64) ([]byte, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  "abci_query",
		Params: abciQueryParams{
			Path:   path,
			Data:   hex.EncodeToString(data),
			Height: strconv.FormatUint(height, 10),
		},
	})
	if err != nil {
		return nil, client.PermanentError(fmt.Errorf("encoding request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, client.PermanentError(fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.hc.Do(req)
	if err != nil {
		// connection failures and timeouts are worth retrying
		return nil, client.RetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("HTTP status %s", resp.Status)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, client.RetryableError(err)
		}
		return nil, client.PermanentError(err)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, client.RetryableError(fmt.Errorf("reading response: %w", err))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return nil, client.PermanentError(fmt.Errorf("decoding RPC envelope: %w", err))
	}
	if rpcResp.Error != nil {
		// the node understood us and said no - not a transient fault
		return nil, client.PermanentError(rpcResp.Error)
	}
	if rpcResp.Result == nil {
		return nil, client.PermanentError(fmt.Errorf("RPC response carries neither result nor error"))
	}

	abci := rpcResp.Result.Response
	if abci.Code != 0 {
		info := abci.Info
		if info == "" {
			info = abci.Log
		}
		return nil, client.PermanentError(fmt.Errorf("ABCI query failed with code %d: %s", abci.Code, info))
	}

	value, err := base64.StdEncoding.DecodeString(abci.Value)
	if err != nil {
		return nil, client.PermanentError(fmt.Errorf("decoding response value: %w", err))
	}
	return value, nil
}
