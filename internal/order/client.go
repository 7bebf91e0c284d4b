package order

import (
	"net"
	"regexp"
	"strings"
)

const LoopbackIP = "127.0.0.1"

var ipv4Pattern = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)

// SanitizePhone removes everything but digits.
func SanitizePhone(phone string) string {
	return digitsOnly(phone)
}

// ClientIP picks the caller address: first X-Forwarded-For entry, otherwise the
// connection address.
func ClientIP(forwardedFor, remoteAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

// SanitizeIP keeps dotted-quad IPv4 addresses and maps anything else to loopback.
func SanitizeIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if !ipv4Pattern.MatchString(ip) {
		return LoopbackIP
	}
	return ip
}
