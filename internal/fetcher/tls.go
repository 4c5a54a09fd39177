package fetcher

import (
	"crypto/x509"
	"errors"
	"strings"
	"sync"
)

// tlsFallbackCache remembers hosts whose certificates failed verification
// once, so later requests skip straight to the permissive client instead of
// failing again.
type tlsFallbackCache struct {
	mu    sync.Mutex
	hosts map[string]struct{}
}

func newTLSFallbackCache() *tlsFallbackCache {
	return &tlsFallbackCache{hosts: make(map[string]struct{})}
}

func (c *tlsFallbackCache) needsFallback(host string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.hosts[host]
	return ok
}

func (c *tlsFallbackCache) markFallback(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hosts[host] = struct{}{}
}

func isCertError(err error) bool {
	var (
		unknownAuthority x509.UnknownAuthorityError
		hostnameErr      x509.HostnameError
		invalidCert      x509.CertificateInvalidError
	)
	if errors.As(err, &unknownAuthority) || errors.As(err, &hostnameErr) || errors.As(err, &invalidCert) {
		return true
	}
	// The http client wraps TLS failures into url.Error with the original
	// message preserved.
	msg := err.Error()
	return strings.Contains(msg, "x509:") || strings.Contains(msg, "certificate")
}
