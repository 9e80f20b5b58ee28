package mw

import (
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
)

// IPBlocklist provides IP-based request blocking against a static list of
// exact IPs and CIDR ranges, configured once at startup from the
// EROOM_BLOCKED_IPS environment variable. There is no remote source to
// refresh: the set is fixed for the life of the process.
// - O(1) lookup for exact IPs
// - CIDR ranges sorted by prefix length (most specific first) for early exit
type IPBlocklist struct {
	mu           sync.RWMutex
	blocked      map[string]bool // exact IP matches
	blockedCIDRs []*net.IPNet    // sorted by prefix length, most specific first
	logger       *slog.Logger
}

// NewIPBlocklist builds a blocklist from a list of entries, each either a
// bare IP ("203.0.113.7") or a CIDR range ("203.0.113.0/24"). Invalid
// entries are logged and skipped rather than rejected outright.
func NewIPBlocklist(entries []string, logger *slog.Logger) *IPBlocklist {
	if logger == nil {
		logger = slog.Default()
	}

	blocked := make(map[string]bool)
	var cidrs []*net.IPNet

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			_, ipNet, err := net.ParseCIDR(entry)
			if err != nil {
				logger.Warn("invalid CIDR in blocklist", "entry", entry, "error", err)
				continue
			}
			cidrs = append(cidrs, ipNet)
			continue
		}
		if ip := net.ParseIP(entry); ip != nil {
			blocked[ip.String()] = true
		} else {
			logger.Warn("invalid IP in blocklist", "entry", entry)
		}
	}

	sort.Slice(cidrs, func(i, j int) bool {
		onesI, _ := cidrs[i].Mask.Size()
		onesJ, _ := cidrs[j].Mask.Size()
		return onesI > onesJ
	})

	return &IPBlocklist{
		blocked:      blocked,
		blockedCIDRs: cidrs,
		logger:       logger,
	}
}

// Middleware returns the HTTP middleware handler. An empty blocklist still
// returns a valid middleware that simply never blocks.
func (b *IPBlocklist) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := extractIP(r)
			if b.isBlocked(clientIP) {
				b.logger.Warn("blocked request from blocklisted IP",
					"ip", clientIP,
					"path", r.URL.Path,
				)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// isBlocked checks if an IP is in the blocklist.
func (b *IPBlocklist) isBlocked(ipStr string) bool {
	if ipStr == "" {
		return false
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.blocked[ip.String()] {
		return true
	}
	for _, cidr := range b.blockedCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// extractIP gets the client IP from the request.
// Assumes middleware.RealIP has already been applied.
func extractIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
