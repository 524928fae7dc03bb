package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type fakeRegistry struct {
	cameras, viewers int
}

func (f *fakeRegistry) Counts() (int, int) {
	return f.cameras, f.viewers
}

func newTestAPI(reg Registry) *httptest.Server {
	logger := zerolog.Nop()
	srv := NewServer(Config{
		Logger:   &logger,
		Registry: reg,
	})
	return httptest.NewServer(srv.Handler)
}

func TestServer_Status(t *testing.T) {
	ts := newTestAPI(&fakeRegistry{cameras: 3, viewers: 2})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}

	var status StatusResponse
	if err = json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !status.OK {
		t.Error("ok = false")
	}
	if status.Cameras != 3 || status.Viewers != 2 {
		t.Errorf("counts = (%d, %d), want (3, 2)", status.Cameras, status.Viewers)
	}
	if status.Subnet == "" {
		t.Error("subnet is empty")
	}
	if status.MyIP != "" && !strings.HasPrefix(status.MyIP, status.Subnet+".") {
		t.Errorf("ip %q not inside subnet %q", status.MyIP, status.Subnet)
	}
}

func TestServer_StatusMethodNotAllowed(t *testing.T) {
	ts := newTestAPI(&fakeRegistry{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/status", "application/json", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	ts := newTestAPI(&fakeRegistry{})
	defer ts.Close()

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/status", nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow-origin = %q, want *", got)
	}
}

func TestLocalNetwork(t *testing.T) {
	subnet, myIP := localNetwork()
	if subnet == "" {
		t.Fatal("subnet is empty")
	}
	if strings.Count(subnet, ".") != 2 {
		t.Errorf("subnet %q is not a /24 prefix", subnet)
	}
	if myIP != "" && !strings.HasPrefix(myIP, subnet+".") {
		t.Errorf("ip %q not inside subnet %q", myIP, subnet)
	}
}
