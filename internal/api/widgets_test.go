package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"tally/internal/cache"
)

func TestRateClientFetchAndCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"base":"USD","rates":{"INR":83.2,"EUR":0.92}}`))
	}))
	defer srv.Close()

	c := NewRateClient(srv.URL, "USD", "INR", cache.NewMemory(8))

	rate, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if rate.Rate != 83.2 || rate.Base != "USD" || rate.Target != "INR" {
		t.Errorf("unexpected rate: %+v", rate)
	}

	if _, err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if calls != 1 {
		t.Errorf("second fetch should hit the cache, endpoint called %d times", calls)
	}
}

func TestRateClientMissingTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{"EUR":0.92}}`))
	}))
	defer srv.Close()

	if _, err := NewRateClient(srv.URL, "USD", "INR", cache.NewMemory(8)).Fetch(context.Background()); err == nil {
		t.Error("expected error when target rate is absent")
	}
}

func TestNewsClientShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"plain headlines", `{"headlines":["a","b"]}`, []string{"a", "b"}},
		{"article objects", `{"articles":[{"title":"x"},{"title":""},{"title":"y"}]}`, []string{"x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := NewNewsClient(srv.URL, 10, cache.NewMemory(8)).Fetch(context.Background())
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("headline %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestNewsClientLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"headlines":["a","b","c","d"]}`))
	}))
	defer srv.Close()

	got, err := NewNewsClient(srv.URL, 2, cache.NewMemory(8)).Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected limit 2 applied, got %d headlines", len(got))
	}
}
