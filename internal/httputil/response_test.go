package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSONSetsContentTypeAndStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"OK", http.StatusOK},
		{"Conflict", http.StatusConflict},
		{"TooManyRequests", http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			WriteJSON(recorder, tt.statusCode, map[string]string{"key": "value"})
			if recorder.Code != tt.statusCode {
				t.Errorf("expected status %d, got %d", tt.statusCode, recorder.Code)
			}
			if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", ct)
			}
		})
	}
}

func TestWriteJSONEncodesStructBody(t *testing.T) {
	type card struct {
		Title   string `json:"title"`
		PlayURL string `json:"playUrl"`
	}
	recorder := httptest.NewRecorder()
	WriteJSON(recorder, http.StatusOK, []card{{Title: "A", PlayURL: "video.html?file=a.mp4"}})

	var decoded []card
	if err := json.NewDecoder(recorder.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Title != "A" {
		t.Errorf("unexpected body: %+v", decoded)
	}
}

func TestWriteErrorProducesCorrectJSON(t *testing.T) {
	recorder := httptest.NewRecorder()
	WriteError(recorder, http.StatusBadRequest, "invalid input")

	var decoded ErrorBody
	if err := json.NewDecoder(recorder.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if decoded.Error != "invalid input" {
		t.Errorf("expected error=invalid input, got %s", decoded.Error)
	}
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestNoStoreSetsCacheHeaders(t *testing.T) {
	recorder := httptest.NewRecorder()
	NoStore(recorder)
	if got := recorder.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("expected Cache-Control no-store, got %q", got)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		PIN string `json:"pin"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"pin":"1234"}`))
	if err := DecodeJSON(httptest.NewRecorder(), req, &dst, 1024); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst.PIN != "1234" {
		t.Errorf("expected pin 1234, got %q", dst.PIN)
	}
}

func TestDecodeJSONRejectsOversizedBody(t *testing.T) {
	var dst map[string]string
	body := `{"pin":"` + strings.Repeat("9", 100) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	err := DecodeJSON(httptest.NewRecorder(), req, &dst, 16)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected too large error, got %v", err)
	}
}

func TestDecodeJSONRejectsMalformedBody(t *testing.T) {
	var dst map[string]string
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"pin":`))
	if err := DecodeJSON(httptest.NewRecorder(), req, &dst, 1024); err == nil {
		t.Error("expected error for malformed body")
	}
}
