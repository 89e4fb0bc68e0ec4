package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-session-secret"

func TestMemoryStore_GetSetDelete(t *testing.T) {
	s := NewMemoryStore()

	if _, ok := s.Get("missing"); ok {
		t.Error("expected missing key to be absent")
	}

	s.Set("k", "v")
	if v, ok := s.Get("k"); !ok || v != "v" {
		t.Errorf("expected v, got %q (ok=%v)", v, ok)
	}

	s.Delete("k")
	if _, ok := s.Get("k"); ok {
		t.Error("expected key to be deleted")
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d entries", s.Len())
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(testSecret, "abc", time.Now())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ValidateToken(testSecret, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.SessionID != "abc" {
		t.Errorf("expected session id abc, got %q", claims.SessionID)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, _ := GenerateToken(testSecret, "abc", time.Now())
	if _, err := ValidateToken("other-secret", token); err == nil {
		t.Error("expected error for token signed with another secret")
	}
}

func TestValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{SessionID: "abc"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateToken(testSecret, signed); err == nil {
		t.Error("expected unsigned token to be rejected")
	}
}

func TestValidateToken_RejectsMissingSessionID(t *testing.T) {
	token, _ := GenerateToken(testSecret, "", time.Now())
	if _, err := ValidateToken(testSecret, token); err == nil {
		t.Error("expected error for empty session id")
	}
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatal("expected session cookie to be set")
	return nil
}

func TestManager_LoadCreatesBrowserSessionCookie(t *testing.T) {
	m := NewManager(Config{Secret: testSecret, SecureCookies: true})
	rec := httptest.NewRecorder()

	s, err := m.Load(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if s.ID == "" {
		t.Error("expected session id")
	}

	c := sessionCookie(t, rec)
	if c.MaxAge != 0 || !c.Expires.IsZero() {
		t.Errorf("expected a browser-session cookie, got MaxAge=%d Expires=%v", c.MaxAge, c.Expires)
	}
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteStrictMode {
		t.Errorf("unexpected cookie attributes: %+v", c)
	}
}

func TestManager_LoadReturnsSameSessionForCookie(t *testing.T) {
	m := NewManager(Config{Secret: testSecret})
	rec := httptest.NewRecorder()
	first, _ := m.Load(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	first.Set("pin_attempts_v1", "2")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie(t, rec))
	rec2 := httptest.NewRecorder()
	second, err := m.Load(rec2, req)
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same session, got %s and %s", first.ID, second.ID)
	}
	if v, _ := second.Get("pin_attempts_v1"); v != "2" {
		t.Errorf("expected stored value to survive, got %q", v)
	}
	if len(rec2.Result().Cookies()) != 0 {
		t.Error("expected no new cookie for an existing session")
	}
}

func TestManager_TamperedCookieStartsFreshSession(t *testing.T) {
	m := NewManager(Config{Secret: testSecret})
	rec := httptest.NewRecorder()
	first, _ := m.Load(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	c := sessionCookie(t, rec)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: strings.TrimSuffix(c.Value, c.Value[len(c.Value)-2:]) + "xx"})

	second, _ := m.Load(httptest.NewRecorder(), req)
	if second.ID == first.ID {
		t.Error("expected tampered cookie to yield a new session")
	}
}

func TestManager_LookupWithoutCookie(t *testing.T) {
	m := NewManager(Config{Secret: testSecret})
	if _, ok := m.Lookup(httptest.NewRequest(http.MethodGet, "/", nil)); ok {
		t.Error("expected no session without cookie")
	}
}

func TestManager_SweepEvictsIdleSessions(t *testing.T) {
	m := NewManager(Config{Secret: testSecret, IdleTTL: time.Minute})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	var evicted []string
	m.OnEvict(func(id string) { evicted = append(evicted, id) })

	rec := httptest.NewRecorder()
	s, _ := m.Load(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if n := m.Sweep(); n != 0 {
		t.Fatalf("expected nothing swept, got %d", n)
	}

	now = now.Add(2 * time.Minute)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("expected 1 session swept, got %d", n)
	}
	if len(evicted) != 1 || evicted[0] != s.ID {
		t.Errorf("expected eviction hook for %s, got %v", s.ID, evicted)
	}
	if m.Len() != 0 {
		t.Errorf("expected no sessions left, got %d", m.Len())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie(t, rec))
	if _, ok := m.Lookup(req); ok {
		t.Error("expected swept session to be gone")
	}
}
