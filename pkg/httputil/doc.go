// Package httputil provides the HTTP plumbing shared by the artlist service
// clients:
//
//   - [Do]: a minimal request helper that follows 301/302 redirects itself,
//     re-resolving relative Location headers against the original request
//     and preserving method, query parameters and body across redirects.
//   - [Retry]: automatic retry with exponential backoff for errors wrapped
//     in [RetryableError] (network failures, 5xx responses).
//
// The dependency-graph service and the build-tracking service sit behind
// redirecting load balancers, which is why redirects are handled manually
// instead of relying on http.Client defaults (those drop the body and
// switch POST to GET on 302).
package httputil
