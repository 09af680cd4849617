package vmssync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/admiralorbiter/VMS-sub007/config"
)

// Connector is a read-only record source. Query returns one page of raw
// records plus the token for the next page ("" when done); Count returns
// the source-side total for the same filter so the count tier can compare.
type Connector interface {
	Name() string
	Authenticate(ctx context.Context) error
	Query(ctx context.Context, entityType string, filter string, pageToken string) (*QueryPage, error)
	Count(ctx context.Context, entityType string, filter string) (int64, error)
}

// QueryPage is one page of raw source records.
type QueryPage struct {
	Records       []json.RawMessage
	NextPageToken string
	TotalSize     int64
}

type ErrorKind string

const (
	ErrorKindAuth           ErrorKind = "auth"
	ErrorKindRateLimit      ErrorKind = "rate_limit"
	ErrorKindNetwork        ErrorKind = "network"
	ErrorKindMalformedQuery ErrorKind = "malformed_query"
)

// ConnectorError classifies a failed source call. Rate-limit and network
// errors are transient and retried with backoff; auth and malformed-query
// errors abort the run immediately.
type ConnectorError struct {
	Kind       ErrorKind
	StatusCode int
	Code       string
	Message    string
}

func (e *ConnectorError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%d %s): %s", e.Kind, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ConnectorError) IsTransient() bool {
	return e.Kind == ErrorKindRateLimit || e.Kind == ErrorKindNetwork
}

func (e *ConnectorError) IsAuth() bool {
	return e.Kind == ErrorKindAuth
}

// AsConnectorError unwraps err into a ConnectorError when possible.
func AsConnectorError(err error) (*ConnectorError, bool) {
	var ce *ConnectorError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

func classifyHTTPStatus(status int, code, message string) *ConnectorError {
	kind := ErrorKindNetwork
	switch {
	case status == 401 || status == 403:
		kind = ErrorKindAuth
	case status == 429:
		kind = ErrorKindRateLimit
	case status == 400:
		kind = ErrorKindMalformedQuery
	}
	// Salesforce reports some limit conditions as 403 with a specific code.
	if code == "REQUEST_LIMIT_EXCEEDED" {
		kind = ErrorKindRateLimit
	}
	return &ConnectorError{Kind: kind, StatusCode: status, Code: code, Message: message}
}

// withRetry runs fn, retrying transient connector errors with exponential
// backoff up to settings.RetryCount attempts. Non-transient errors and
// context cancellation return immediately.
func withRetry(ctx context.Context, settings config.SyncSettings, moduleName, functionName string, fn func() error) error {
	logger := config.GetLogger()
	delay := settings.RetryBaseDelay
	var lastErr error
	for attempt := 0; attempt <= settings.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		ce, ok := AsConnectorError(lastErr)
		if !ok || !ce.IsTransient() {
			return lastErr
		}
		config.LogError(logger, moduleName, functionName,
			fmt.Sprintf("Transient source error, attempt %d of %d", attempt+1, settings.RetryCount+1), nil, lastErr)
	}
	return lastErr
}
