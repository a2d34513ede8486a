package source

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kapu/kdp-keyword-go/internal/constants"
)

var browserUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
}

// NewHTTPClient builds the resty client shared by the web adapters. Every
// request carries a user agent; when userAgent is empty the client rotates
// through a small pool of desktop browser strings.
func NewHTTPClient(timeout time.Duration, userAgent string) *resty.Client {
	agents := browserUserAgents
	if userAgent != "" && userAgent != constants.APIConfig.DefaultUserAgent {
		agents = []string{userAgent}
	}

	var next uint64
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept-Language", "en-US,en;q=0.9")
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if req.Header.Get("User-Agent") == "" {
			i := atomic.AddUint64(&next, 1)
			req.SetHeader("User-Agent", agents[int(i%uint64(len(agents)))])
		}
		return nil
	})
	return client
}

// StatusError is a non-2xx upstream answer.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// RateLimited reports whether the upstream asked us to slow down.
func (e *StatusError) RateLimited() bool {
	return e.Code == http.StatusTooManyRequests || e.Code == http.StatusServiceUnavailable
}

// checkResponse folds a resty result into a single error.
func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		return &StatusError{Code: resp.StatusCode(), URL: resp.Request.URL}
	}
	return nil
}
