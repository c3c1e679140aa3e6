package middleware

import (
	"net"
	"net/http"
	"strings"
)

// RealIP rewrites RemoteAddr from X-Forwarded-For or X-Real-IP, but only when
// the direct peer is one of the trusted proxy networks. Otherwise forwarding
// headers are ignored, so clients cannot pick their own address.
func RealIP(trusted []*net.IPNet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := forwardedClientIP(r, trusted); ip != "" {
				r.RemoteAddr = net.JoinHostPort(ip, "0")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// forwardedClientIP returns the client address reported by a trusted proxy,
// or "" when the headers must not be used.
func forwardedClientIP(r *http.Request, trusted []*net.IPNet) string {
	if len(trusted) == 0 {
		return ""
	}
	peer := net.ParseIP(clientIP(r))
	if peer == nil || !isTrusted(peer, trusted) {
		return ""
	}

	// Walk right to left: every hop we trust appended the address it saw,
	// so the first untrusted entry is the real client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			ip := net.ParseIP(strings.TrimSpace(hops[i]))
			if ip == nil {
				return ""
			}
			if !isTrusted(ip, trusted) || i == 0 {
				return ip.String()
			}
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	return ""
}

func isTrusted(ip net.IP, trusted []*net.IPNet) bool {
	for _, network := range trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
