package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// UnknownClient is the sentinel used when no forwarding header yields a
// plausible address.
const UnknownClient = "unknown"

const clientIPKey = "client_ip"

// forwardingHeaders in trust order. X-Forwarded-For comes first; its
// leftmost entry is the original client under the usual proxy convention.
var forwardingHeaders = []string{
	"X-Forwarded-For",
	"X-Client-IP",
	"X-Real-IP",
	"CF-Connecting-IP",
	"True-Client-IP",
	"Fastly-Client-IP",
}

// ResolveClientIP extracts a best-effort caller address from forwarding
// headers, returning false when only the sentinel is available. Any caller
// that controls its own headers can spoof this, so it is a fairness key for
// rate limiting, never a security boundary.
func ResolveClientIP(header http.Header) (string, bool) {
	for _, name := range forwardingHeaders {
		value := strings.TrimSpace(header.Get(name))
		if value == "" {
			continue
		}

		// X-Forwarded-For may carry the whole proxy chain
		if name == "X-Forwarded-For" {
			if idx := strings.IndexByte(value, ','); idx >= 0 {
				value = strings.TrimSpace(value[:idx])
			}
		}

		if isValidIPv4(value) || isValidIPv6(value) {
			return value, true
		}
	}

	return UnknownClient, false
}

func isValidIPv4(ip string) bool {
	if strings.Count(ip, ".") != 3 {
		return false
	}
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.To4() != nil
}

func isValidIPv6(ip string) bool {
	if !strings.Contains(ip, ":") || strings.Contains(ip, ".") {
		return false
	}
	return net.ParseIP(ip) != nil
}

// ClientIPMiddleware resolves the caller address once per request and
// stores it in the context
func ClientIPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip, _ := ResolveClientIP(c.Request.Header)
		c.Set(clientIPKey, ip)
		c.Next()
	}
}

// GetClientIP retrieves the resolved caller address from the context
func GetClientIP(c *gin.Context) string {
	if value, exists := c.Get(clientIPKey); exists {
		if ip, ok := value.(string); ok {
			return ip
		}
	}
	return UnknownClient
}
