package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetcher_Run(t *testing.T) {
	var userAgent, accept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		userAgent = r.Header.Get("User-Agent")
		accept = r.Header.Get("Accept")
		w.Write([]byte(testFeed))
	}))
	defer server.Close()

	sources, err := ParseSources([]byte(`
feeds: ["https://example.com/feed"]
publishers:
  - host: "127.0.0.1"
    name: "Lokal"
    enrich: true
`))
	if err != nil {
		t.Fatalf("Failed to parse sources: %v", err)
	}

	fetcher := NewFetcher(server.Client(), NewParser(), sources, "News Comb/test")
	results := fetcher.Run(context.Background(), []string{server.URL + "/down", server.URL + "/feed"})

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	failed, ok := results[0], results[1]
	if failed.Err == nil || len(failed.Items) != 0 {
		t.Errorf("Expected first feed to fail without items, got: %+v", failed)
	}
	if ok.Err != nil {
		t.Fatalf("Expected second feed to succeed, got: %v", ok.Err)
	}
	if len(ok.Items) != 4 {
		t.Fatalf("Expected 4 items, got %d", len(ok.Items))
	}
	if ok.Metadata == nil || ok.Metadata.Title != "Test Feed" {
		t.Errorf("Expected feed metadata, got: %+v", ok.Metadata)
	}

	for _, item := range ok.Items {
		if item.Source != "Lokal" {
			t.Errorf("Expected source Lokal, got: %s", item.Source)
		}
		if item.Publisher == nil || !item.Publisher.Enrich {
			t.Errorf("Expected publisher settings to be attached, got: %+v", item.Publisher)
		}
	}

	if userAgent != "News Comb/test" {
		t.Errorf("Expected configured User-Agent, got: %q", userAgent)
	}
	if accept == "" {
		t.Error("Expected Accept header to be set")
	}
}
