package lcsd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newProbeServer(t *testing.T, valid map[string]bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ftid") != "38" {
			t.Errorf("expected ftid=38, got %q", r.URL.Query().Get("ftid"))
		}
		did := r.URL.Query().Get("did")
		if valid[did] {
			w.Write([]byte(`<html><a name="1001"></a>facility page</html>`))
			return
		}
		w.Write([]byte("<html>" + ErrorIndicator + "</html>"))
	}))
}

func TestProbeCollectsValidDIDs(t *testing.T) {
	srv := newProbeServer(t, map[string]bool{"2": true, "4": true})
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	result, err := client.Probe(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}

	if result.Checked != 5 {
		t.Fatalf("expected 5 checked, got %d", result.Checked)
	}
	if len(result.ValidDIDs) != 2 || result.ValidDIDs[0] != "2" || result.ValidDIDs[1] != "4" {
		t.Fatalf("expected valid DIDs [2 4], got %v", result.ValidDIDs)
	}
	if result.Timestamp == "" {
		t.Fatal("expected timestamp to be set")
	}
}

func TestFetchPageFlagsErrorPage(t *testing.T) {
	srv := newProbeServer(t, map[string]bool{"7": true})
	defer srv.Close()

	client := NewClient(srv.URL, 0)

	_, ok, err := client.FetchPage(context.Background(), 7)
	if err != nil || !ok {
		t.Fatalf("expected valid page for did 7, ok=%v err=%v", ok, err)
	}

	_, ok, err = client.FetchPage(context.Background(), 8)
	if err != nil {
		t.Fatalf("FetchPage returned error: %v", err)
	}
	if ok {
		t.Fatal("expected error page to be flagged invalid")
	}
}

func TestProbeHonorsContext(t *testing.T) {
	srv := newProbeServer(t, nil)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(srv.URL, 0)
	if _, err := client.Probe(ctx, 1, 3); err == nil {
		t.Fatal("expected context cancellation error")
	}
}
