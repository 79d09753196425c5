package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pergola-quoter/internal/distance"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)
}

func TestClient_DistanceKM(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "Praha", q.Get("origins"))
		assert.Equal(t, "Brno", q.Get("destinations"))
		assert.Equal(t, "metric", q.Get("units"))
		assert.Equal(t, "test-key", q.Get("key"))
		_, _ = w.Write([]byte(`{"status":"OK","rows":[{"elements":[{"status":"OK","distance":{"value":205300,"text":"205 km"}}]}]}`))
	})

	km, err := c.DistanceKM(context.Background(), "Praha", "Brno")
	require.NoError(t, err)
	assert.InDelta(t, 205.3, km, 1e-9)
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		noRoute bool
	}{
		{"request denied", http.StatusOK, `{"status":"REQUEST_DENIED","error_message":"bad key","rows":[]}`, false},
		{"element not found", http.StatusOK, `{"status":"OK","rows":[{"elements":[{"status":"NOT_FOUND"}]}]}`, true},
		{"no rows", http.StatusOK, `{"status":"OK","rows":[]}`, true},
		{"server error", http.StatusInternalServerError, `oops`, false},
		{"garbage", http.StatusOK, `not json`, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := c.DistanceKM(context.Background(), "Praha", "Nowhere")
			require.Error(t, err)
			if tc.noRoute {
				assert.ErrorIs(t, err, distance.ErrNoRoute)
			}
		})
	}
}

func TestClient_NoKey(t *testing.T) {
	t.Setenv("GOOGLE_MAPS_API_KEY", "")
	c := NewClient(Config{BaseURL: "http://127.0.0.1:0"}, nil)
	_, err := c.DistanceKM(context.Background(), "a", "b")
	assert.Error(t, err)
}
