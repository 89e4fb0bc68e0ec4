// Package i18n registers the gate's user-facing strings with x/text and
// resolves the language for a request.
package i18n

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	LangParam      = "lang"
	LangCookieName = "vg_lang"
)

var supported = []language.Tag{language.Arabic, language.English}

var matcher = language.NewMatcher(supported)

func Supported() []language.Tag {
	return append([]language.Tag(nil), supported...)
}

// ParseTag maps value to a supported tag.
func ParseTag(value string) (language.Tag, bool) {
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return language.Und, false
	}
	return Match(tag)
}

func Match(tags ...language.Tag) (language.Tag, bool) {
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return language.Und, false
	}
	return supported[idx], true
}

// ResolveTag picks the language from the lang query parameter, the language
// cookie, then Accept-Language. The bool reports whether the query
// parameter chose it and should be persisted.
func ResolveTag(r *http.Request, fallback language.Tag) (language.Tag, bool) {
	if r == nil {
		return fallback, false
	}

	if v := r.URL.Query().Get(LangParam); v != "" {
		if tag, ok := ParseTag(v); ok {
			return tag, true
		}
	}

	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if tag, ok := ParseTag(cookie.Value); ok {
			return tag, false
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			if tag, ok := Match(tags...); ok {
				return tag, false
			}
		}
	}

	return fallback, false
}

// SetLanguageCookie persists tag for a year. secure should match the
// session cookie.
func SetLanguageCookie(w http.ResponseWriter, tag language.Tag, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// Direction returns the text direction for tag.
func Direction(tag language.Tag) string {
	base, _ := tag.Base()
	if base.String() == "ar" {
		return "rtl"
	}
	return "ltr"
}
