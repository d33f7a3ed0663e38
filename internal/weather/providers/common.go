package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

var (
	errNoHTTPClient = errors.New("http client not configured")
	errServerError  = errors.New("server error")
	errCallerGone   = errors.New("request abandoned by caller")
)

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 4 << 10

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:         name,
		MaxRequests:  5,
		Interval:     1 * time.Minute,
		Timeout:      2 * time.Minute,
		IsSuccessful: isSuccessful,
	})
}

// isSuccessful does not count requests abandoned by their caller; a cancelled
// or superseded load says nothing about the provider.
func isSuccessful(err error) bool {
	return err == nil || errors.Is(err, errCallerGone)
}

// doRequest executes one attempt of the request through the circuit breaker.
// Only transport failures and 5xx responses count against the breaker. Any
// status outside [200,300) is returned as *weather.HTTPStatusError.
func doRequest(ctx context.Context, client *http.Client, cb *gobreaker.CircuitBreaker, op string, req *http.Request) (*http.Response, error) {
	if client == nil {
		return nil, &weather.TransportError{Op: op, Err: errNoHTTPClient}
	}
	if err := ctx.Err(); err != nil {
		return nil, &weather.TransportError{Op: op, Err: err}
	}
	req = req.WithContext(ctx)

	var serverResp *http.Response
	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			if ctx.Err() != nil {
				return nil, errCallerGone
			}
			return nil, execErr
		}
		if resp.StatusCode >= 500 {
			serverResp = resp
			return nil, errServerError
		}
		return resp, nil
	})

	if serverResp != nil {
		return nil, statusError(op, serverResp)
	}
	if errors.Is(err, errCallerGone) {
		return nil, &weather.TransportError{Op: op, Err: ctx.Err()}
	}
	if err != nil {
		return nil, &weather.TransportError{Op: op, Err: stripURL(err)}
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, &weather.TransportError{Op: op, Err: fmt.Errorf("unexpected result type from circuit breaker")}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(op, resp)
	}
	return resp, nil
}

// stripURL drops the request URL from client errors; its query carries the
// API key.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

// statusError consumes and closes resp, extracting the provider's message.
func statusError(op string, resp *http.Response) error {
	defer resp.Body.Close()

	statusErr := &weather.HTTPStatusError{Op: op, StatusCode: resp.StatusCode}

	var body struct {
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && json.Unmarshal(data, &body) == nil {
		statusErr.Message = body.Message
	}
	return statusErr
}

// decodeStrict decodes resp into v and checks its required sections.
func decodeStrict(op string, resp *http.Response, v interface{}) error {
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &weather.DecodeError{Op: op, Err: err}
	}
	if err := validate.Struct(v); err != nil {
		return &weather.DecodeError{Op: op, Err: err}
	}
	return nil
}
