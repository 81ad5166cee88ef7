package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowHeaders = "Content-Type, Authorization, Accept, Cache-Control, X-Requested-With, Last-Event-ID"
	corsAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
)

// originPolicy matches request origins against an allow-list of exact
// origins ("https://robinhoot.com") and subdomain wildcards
// ("https://*.robinhoot.com").
type originPolicy struct {
	exact    map[string]bool
	suffixes []string // "https://" + ".robinhoot.com", matched against scheme://host
}

func newOriginPolicy(origins []string) *originPolicy {
	p := &originPolicy{exact: make(map[string]bool, len(origins))}
	for _, o := range origins {
		scheme, host, ok := strings.Cut(strings.ToLower(strings.TrimSpace(o)), "://")
		if !ok || host == "" {
			continue
		}
		if rest, wild := strings.CutPrefix(host, "*."); wild {
			p.suffixes = append(p.suffixes, scheme+"://."+rest)
			continue
		}
		if n := normalizeOrigin(scheme + "://" + host); n != "" {
			p.exact[n] = true
		}
	}
	return p
}

// allows reports whether origin may make credentialed cross-origin requests.
func (p *originPolicy) allows(origin string) bool {
	n := normalizeOrigin(origin)
	if n == "" {
		return false
	}
	if p.exact[n] {
		return true
	}
	scheme, host, _ := strings.Cut(n, "://")
	for _, s := range p.suffixes {
		sScheme, sHost, _ := strings.Cut(s, "://")
		if scheme == sScheme && strings.HasSuffix(host, sHost) {
			return true
		}
	}
	return false
}

// normalizeOrigin returns scheme://host in lower case without a default
// port, or "" when raw is not an origin.
func normalizeOrigin(raw string) string {
	u, err := url.Parse(strings.TrimSuffix(strings.TrimSpace(raw), "/"))
	if err != nil || u.Scheme == "" || u.Host == "" || (u.Path != "" && u.Path != "/") {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	if (scheme == "https" && strings.HasSuffix(host, ":443")) || (scheme == "http" && strings.HasSuffix(host, ":80")) {
		host = host[:strings.LastIndex(host, ":")]
	}
	return scheme + "://" + host
}

// NewCORSMiddleware allows credentialed requests from allowedOrigins only.
// Preflights from other origins are refused with 403.
func NewCORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	policy := newOriginPolicy(allowedOrigins)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			// Same-origin or non-browser request.
			c.Next()
			return
		}
		c.Writer.Header().Add("Vary", "Origin")

		allowed := policy.allows(origin)
		if allowed {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Expose-Headers", "X-Request-Id")
		}

		if c.Request.Method == http.MethodOptions {
			if !allowed {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
			c.Header("Access-Control-Allow-Methods", corsAllowMethods)
			c.Header("Access-Control-Max-Age", "86400")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
