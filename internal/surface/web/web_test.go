package web_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/voiceselect/internal/surface"
	"github.com/MrWong99/voiceselect/internal/surface/web"
)

var testPage = surface.Page{Items: []surface.Item{
	{ID: "mario", Name: "Mario", Selected: "default"},
	{ID: "koopa", Name: "Bowser", Selected: "jp"},
}}

func startServer(t *testing.T) (*web.Server, *httptest.Server) {
	t.Helper()
	s := web.New("http://localhost/", "CSK_SPLIT")
	mux := http.NewServeMux()
	s.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return s, srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

// showAsync runs Show in the background and waits until the page is open.
func showAsync(t *testing.T, ctx context.Context, s *web.Server) <-chan surface.Result {
	t.Helper()
	out := make(chan surface.Result, 1)
	go func() {
		res, err := s.Show(ctx, testPage)
		if err != nil && ctx.Err() == nil {
			t.Errorf("Show: %v", err)
		}
		out <- res
	}()
	deadline := time.Now().Add(3 * time.Second)
	for !s.Open() {
		if time.Now().After(deadline) {
			t.Fatal("page never opened")
		}
		time.Sleep(time.Millisecond)
	}
	return out
}

func TestServer_SubmitRoundTrip(t *testing.T) {
	t.Parallel()
	s, srv := startServer(t)
	results := showAsync(t, context.Background(), s)

	code, body := get(t, srv.URL+"/menu")
	if code != http.StatusOK {
		t.Fatalf("GET /menu = %d", code)
	}
	for _, want := range []string{"Bowser", `name="koopa"`, `value="jp" selected`, `"CSK_SPLIT"`} {
		if !strings.Contains(body, want) {
			t.Errorf("menu does not contain %q", want)
		}
	}

	if code, _ := get(t, srv.URL+"/done/mario%3DengCSK_SPLIT"); code != http.StatusOK {
		t.Fatalf("GET /done = %d", code)
	}
	select {
	case res := <-results:
		if res.LastURL != "http://localhost/mario%3DengCSK_SPLIT" {
			t.Errorf("LastURL = %q", res.LastURL)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Show did not return")
	}

	sub, err := surface.ParseSubmission("http://localhost/mario%3DengCSK_SPLIT", "http://localhost/", "CSK_SPLIT")
	if err != nil || len(sub.Records) != 1 || sub.Records[0].Entity != "mario" {
		t.Errorf("result does not parse back: %+v, %v", sub, err)
	}

	if code, _ := get(t, srv.URL+"/menu"); code != http.StatusNotFound {
		t.Errorf("GET /menu after close = %d; want 404", code)
	}
}

func TestServer_Dismiss(t *testing.T) {
	t.Parallel()
	s, srv := startServer(t)
	results := showAsync(t, context.Background(), s)

	get(t, srv.URL+"/done/")
	res := <-results
	if res.LastURL != "http://localhost/" {
		t.Errorf("LastURL = %q; want bare origin", res.LastURL)
	}
}

func TestServer_Busy(t *testing.T) {
	t.Parallel()
	s, srv := startServer(t)
	results := showAsync(t, context.Background(), s)

	if _, err := s.Show(context.Background(), testPage); !errors.Is(err, web.ErrBusy) {
		t.Errorf("second Show err = %v; want ErrBusy", err)
	}
	get(t, srv.URL+"/done/")
	<-results
}

func TestServer_ClosedPage(t *testing.T) {
	t.Parallel()
	_, srv := startServer(t)
	if code, _ := get(t, srv.URL+"/menu"); code != http.StatusNotFound {
		t.Errorf("GET /menu = %d; want 404", code)
	}
	if code, _ := get(t, srv.URL+"/done/x"); code != http.StatusNotFound {
		t.Errorf("GET /done = %d; want 404", code)
	}
}

func TestServer_ShowCancelled(t *testing.T) {
	t.Parallel()
	s, _ := startServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	results := showAsync(t, ctx, s)

	cancel()
	select {
	case <-results:
	case <-time.After(3 * time.Second):
		t.Fatal("Show ignored cancellation")
	}
	if s.Open() {
		t.Error("page still open after cancellation")
	}
}
