package middleware

import (
	"net"
	"net/http"
)

// ClientID returns the identifier used to key rate limits and audit logs:
// the host part of the connection address. Forwarded headers only affect it
// when the router is configured to trust them, in which case chi's RealIP
// has already rewritten RemoteAddr.
func ClientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
