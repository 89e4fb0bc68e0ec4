// Package audit writes local structured log entries for gate lockouts.
// Nothing is sent to an external service.
package audit

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
	"github.com/sendrec/videogate/internal/geoip"
)

type Locator interface {
	Lookup(ip string) geoip.Location
}

type Client struct {
	IP      string
	Browser string
	OS      string
	Mobile  bool
	Bot     bool
	Country string
	City    string
}

type Recorder struct {
	logger  *slog.Logger
	locator Locator
}

func NewRecorder(logger *slog.Logger, locator Locator) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{logger: logger, locator: locator}
}

func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (rec *Recorder) Describe(r *http.Request) Client {
	ua := useragent.New(r.UserAgent())
	browser, version := ua.Browser()
	if version != "" {
		browser += " " + version
	}

	c := Client{
		IP:      ClientIP(r),
		Browser: browser,
		OS:      ua.OS(),
		Mobile:  ua.Mobile(),
		Bot:     ua.Bot(),
	}
	if rec.locator != nil {
		loc := rec.locator.Lookup(c.IP)
		c.Country, c.City = loc.Country, loc.City
	}
	return c
}

func (rec *Recorder) Lockout(r *http.Request, sessionID string, attempts int) {
	c := rec.Describe(r)
	rec.logger.Warn("gate: session locked out",
		"session", shortID(sessionID),
		"attempts", attempts,
		"ip", c.IP,
		"browser", c.Browser,
		"os", c.OS,
		"mobile", c.Mobile,
		"bot", c.Bot,
		"country", c.Country,
		"city", c.City,
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
