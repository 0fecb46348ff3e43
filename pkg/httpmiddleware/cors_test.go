package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func corsHandler(cfg CORSConfig) http.Handler {
	return CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCORS_Actual(t *testing.T) {
	tests := []struct {
		name       string
		cfg        CORSConfig
		origin     string
		wantOrigin string
		wantVary   bool
	}{
		{name: "wildcard", cfg: CORSConfig{Origins: []string{"*"}}, origin: "https://shop.example", wantOrigin: "*"},
		{name: "empty allows all", cfg: CORSConfig{}, origin: "https://shop.example", wantOrigin: "*"},
		{
			name:       "listed origin echoed in configured case",
			cfg:        CORSConfig{Origins: []string{"https://Shop.example"}},
			origin:     "https://shop.EXAMPLE",
			wantOrigin: "https://Shop.example",
			wantVary:   true,
		},
		{
			name:     "unlisted origin",
			cfg:      CORSConfig{Origins: []string{"https://shop.example"}},
			origin:   "https://evil.example",
			wantVary: true,
		},
		{
			name:       "credentials disable wildcard",
			cfg:        CORSConfig{Origins: []string{"*", "https://shop.example"}, AllowCredentials: true},
			origin:     "https://shop.example",
			wantOrigin: "https://shop.example",
			wantVary:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/coupons", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			corsHandler(tt.cfg).ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantVary {
				assert.Contains(t, w.Header().Values("Vary"), "Origin")
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := corsHandler(CORSConfig{
		Origins: []string{"https://shop.example"},
		Expose:  []string{RequestIDHeader},
		MaxAge:  10 * time.Minute,
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/evaluate", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))

	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_NoOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	w := httptest.NewRecorder()
	corsHandler(CORSConfig{Origins: []string{"https://shop.example"}}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, []string{"Origin"}, w.Header().Values("Vary"))
}
