package httputil

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/repotools/artlist/pkg/observability"
)

// maxRedirects bounds the manual redirect chain.
const maxRedirects = 10

// Do issues a request and follows 301/302 redirects manually. A relative
// Location header is resolved against the scheme and host of the redirecting
// request. Unlike the default http.Client behavior, the method, query
// parameters, headers and body are all preserved on redirect.
//
// The caller owns the returned response body.
func Do(ctx context.Context, client *http.Client, method, rawURL string, params url.Values, body []byte, headers map[string]string) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}

	target := rawURL
	for redirects := 0; ; redirects++ {
		u, err := url.Parse(target)
		if err != nil {
			return nil, err
		}
		if len(params) > 0 {
			q := u.Query()
			for k, vs := range params {
				for _, v := range vs {
					q.Add(k, v)
				}
			}
			u.RawQuery = q.Encode()
		}

		var reader *bytes.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
		if err != nil {
			return nil, err
		}
		if reader != nil {
			req.Body = noCloseReader{reader}
			req.ContentLength = int64(reader.Len())
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		observability.HTTP().OnRequest(ctx, method, u.Host, u.Path)
		start := time.Now()
		resp, err := noRedirect(client).Do(req)
		if err != nil {
			observability.HTTP().OnError(ctx, method, u.Host, u.Path, err)
			return nil, &RetryableError{Err: err}
		}
		observability.HTTP().OnResponse(ctx, method, u.Host, u.Path, resp.StatusCode, time.Since(start))

		if resp.StatusCode != http.StatusMovedPermanently && resp.StatusCode != http.StatusFound {
			return resp, nil
		}
		location := resp.Header.Get("Location")
		resp.Body.Close()
		if location == "" {
			return nil, fmt.Errorf("redirect from %s without Location header", u)
		}
		if redirects >= maxRedirects {
			return nil, fmt.Errorf("stopped after %d redirects for %s", maxRedirects, rawURL)
		}

		loc, err := url.Parse(location)
		if err != nil {
			return nil, err
		}
		if loc.Scheme == "" {
			loc = u.ResolveReference(loc)
		}
		// Params are re-applied on the next iteration unless the redirect
		// target carries its own query string.
		if loc.RawQuery != "" {
			params = nil
		} else {
			loc.RawQuery = ""
		}
		target = loc.String()
	}
}

// noRedirect returns a shallow copy of client that surfaces redirect
// responses instead of following them.
func noRedirect(client *http.Client) *http.Client {
	c := *client
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &c
}

type noCloseReader struct{ *bytes.Reader }

func (noCloseReader) Close() error { return nil }
