package audit

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sendrec/videogate/internal/geoip"
)

type fixedLocator struct {
	loc    geoip.Location
	lastIP string
}

func (f *fixedLocator) Lookup(ip string) geoip.Location {
	f.lastIP = ip
	return f.loc
}

const firefoxUA = "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0"

func TestClientIP(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		remote    string
		want      string
	}{
		{"RemoteAddr", "", "10.0.0.1:1234", "10.0.0.1"},
		{"RemoteAddrWithoutPort", "", "10.0.0.1", "10.0.0.1"},
		{"SingleForwarded", "203.0.113.7", "10.0.0.1:1234", "203.0.113.7"},
		{"ForwardedChain", "203.0.113.7, 10.0.0.2", "10.0.0.1:1234", "203.0.113.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDescribe_ParsesUserAgentAndLocation(t *testing.T) {
	locator := &fixedLocator{loc: geoip.Location{Country: "JO", City: "Amman"}}
	rec := NewRecorder(nil, locator)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", firefoxUA)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")

	c := rec.Describe(req)
	if !strings.HasPrefix(c.Browser, "Firefox") {
		t.Errorf("expected Firefox browser, got %q", c.Browser)
	}
	if !strings.Contains(c.OS, "Linux") {
		t.Errorf("expected Linux OS, got %q", c.OS)
	}
	if c.Country != "JO" || c.City != "Amman" {
		t.Errorf("unexpected location: %+v", c)
	}
	if locator.lastIP != "203.0.113.7" {
		t.Errorf("expected lookup of forwarded IP, got %q", locator.lastIP)
	}
}

func TestLockout_WritesStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	rec := NewRecorder(logger, geoip.New(""))

	req := httptest.NewRequest(http.MethodPost, "/unlock", nil)
	req.Header.Set("User-Agent", firefoxUA)
	rec.Lockout(req, "0123456789abcdef", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log entry, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "gate: session locked out" {
		t.Errorf("unexpected message: %v", entry["msg"])
	}
	if entry["session"] != "01234567" {
		t.Errorf("expected shortened session id, got %v", entry["session"])
	}
	if entry["attempts"] != float64(3) {
		t.Errorf("expected attempts=3, got %v", entry["attempts"])
	}
}
