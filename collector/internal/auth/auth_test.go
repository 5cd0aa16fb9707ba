package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// passHandler answers 200 "ok".
var passHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok")) //nolint:errcheck
})

func call(t *testing.T, mw func(http.Handler) http.Handler, header, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
	if key != "" {
		req.Header.Set(header, key)
	}
	rr := httptest.NewRecorder()
	mw(passHandler).ServeHTTP(rr, req)
	return rr
}

func TestAPIKey_ModeNone_PassesThrough(t *testing.T) {
	rr := call(t, APIKey("none", "X-Api-Key", "secret"), "X-Api-Key", "")
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Errorf("got %d %q, want 200 ok", rr.Code, rr.Body.String())
	}
}

func TestAPIKey_EmptyKey_RejectsAll(t *testing.T) {
	// apikey mode with no resolved key must not open the receiver.
	mw := APIKey("apikey", "X-Api-Key", "")
	for _, sent := range []string{"", "anything"} {
		rr := call(t, mw, "X-Api-Key", sent)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("sent %q: status %d, want 401", sent, rr.Code)
		}
	}
}

func TestAPIKey_CorrectKey_Passes(t *testing.T) {
	rr := call(t, APIKey("apikey", "X-Api-Key", "supersecret"), "X-Api-Key", "supersecret")
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

func TestAPIKey_WrongKey_Unauthorized(t *testing.T) {
	rr := call(t, APIKey("apikey", "X-Api-Key", "supersecret"), "X-Api-Key", "wrong")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
	if rr.Body.String() == "ok" {
		t.Error("wrapped handler ran for a rejected request")
	}
}

func TestAPIKey_MissingHeader_Unauthorized(t *testing.T) {
	rr := call(t, APIKey("apikey", "X-Api-Key", "supersecret"), "X-Api-Key", "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
}

func TestAPIKey_CustomHeader(t *testing.T) {
	mw := APIKey("apikey", "X-Collector-Token", "mytoken")
	if rr := call(t, mw, "X-Collector-Token", "mytoken"); rr.Code != http.StatusOK {
		t.Errorf("custom header: got %d, want 200", rr.Code)
	}
	if rr := call(t, mw, "X-Api-Key", "mytoken"); rr.Code != http.StatusUnauthorized {
		t.Errorf("default header with custom config: got %d, want 401", rr.Code)
	}
}
