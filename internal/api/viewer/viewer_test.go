package viewer

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/danielgtaylor/huma/v2/humatest"

	"github.com/joeblew999/lithium-map/internal/concession"
	"github.com/joeblew999/lithium-map/internal/service"
	"github.com/joeblew999/lithium-map/internal/templates"
)

func newTestAPI(t *testing.T) (humatest.TestAPI, *http.ServeMux, *service.MapService) {
	t.Helper()
	ds, err := concession.LoadDataset("../../concession/testdata/concessions.geojson")
	if err != nil {
		t.Fatal(err)
	}
	r, err := templates.New("../../../web/templates/fragments")
	if err != nil {
		t.Fatal(err)
	}
	maps := service.NewMapService(ds, concession.DefaultLang, nil)

	// SSE handlers unwrap the request through the humago adapter.
	mux := http.NewServeMux()
	api := humago.New(mux, huma.DefaultConfig("viewer test", "1.0.0"))
	NewHandler(maps, r).RegisterRoutes(api)
	return humatest.Wrap(t, api), mux, maps
}

func TestClickPatchesPopups(t *testing.T) {
	api, _, _ := newTestAPI(t)

	resp := api.Post("/api/v1/viewer/click", map[string]any{"session": "s1", "lng": -7.85, "lat": 40.15})
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.Code, resp.Body)
	}
	body := resp.Body.String()
	for _, want := range []string{
		"datastar-patch-elements",
		"#popups",
		"Mina X",
		"Serra Azul",
		"Promotor",
		"Situação atual",
		`data-anchor="top"`,
		`data-anchor="bottom"`,
		"datastar-patch-signals",
		`"clicked":true`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestClickEmptySendsNothing(t *testing.T) {
	api, _, _ := newTestAPI(t)
	resp := api.Post("/api/v1/viewer/click", map[string]any{"session": "s1", "lng": -6.0, "lat": 38.0})
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), "datastar-patch") {
		t.Fatalf("unexpected patch: %s", resp.Body)
	}
}

func TestClickMissingSignals(t *testing.T) {
	api, _, maps := newTestAPI(t)
	for _, tc := range []struct {
		name    string
		signals map[string]any
		want    string
	}{
		{"no session", map[string]any{"lng": -7.85, "lat": 40.15}, `"error":"session is required"`},
		{"no position", map[string]any{"session": "s1"}, `"error":"click position is required"`},
		{"no lat", map[string]any{"session": "s1", "lng": -7.85}, `"error":"click position is required"`},
	} {
		resp := api.Post("/api/v1/viewer/click", tc.signals)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: status=%d", tc.name, resp.Code)
		}
		body := resp.Body.String()
		if !strings.Contains(body, "datastar-patch-signals") || !strings.Contains(body, tc.want) {
			t.Errorf("%s: body=%s", tc.name, body)
		}
		if strings.Contains(body, "#popups") {
			t.Errorf("%s: popups patched: %s", tc.name, body)
		}
	}
	if n := maps.Sessions(); n != 0 {
		t.Fatalf("sessions=%d, want 0", n)
	}
}

func TestClickClearsError(t *testing.T) {
	api, _, _ := newTestAPI(t)
	resp := api.Post("/api/v1/viewer/click", map[string]any{"session": "s1", "lng": -7.85, "lat": 40.15})
	if !strings.Contains(resp.Body.String(), `"error":""`) {
		t.Fatalf("body=%s", resp.Body)
	}
}

func TestDismiss(t *testing.T) {
	api, _, maps := newTestAPI(t)
	maps.Click("s1", concession.LngLat{Lng: -7.85, Lat: 40.15})

	resp := api.Delete("/api/v1/viewer/popups", map[string]any{"session": "s1"})
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"clicked":false`) {
		t.Errorf("body=%s", resp.Body)
	}
	if n := len(maps.Popups("s1")); n != 0 {
		t.Fatalf("popups=%d after dismiss", n)
	}
}

func TestDismissRequiresSession(t *testing.T) {
	api, _, _ := newTestAPI(t)
	resp := api.Delete("/api/v1/viewer/popups", map[string]any{})
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, `"error":"session is required"`) || strings.Contains(body, "#popups") {
		t.Fatalf("body=%s", body)
	}
}

func TestLegend(t *testing.T) {
	api, _, _ := newTestAPI(t)
	resp := api.Get("/api/v1/viewer/legend")
	body := resp.Body.String()
	if !strings.Contains(body, "#legend") || strings.Count(body, `class="legend-item"`) != len(concession.Tags) {
		t.Fatalf("body=%s", body)
	}
	if !strings.Contains(body, "#8B0000") || !strings.Contains(body, "Procedimento concursal") {
		t.Errorf("legend rows incomplete: %s", body)
	}
}

func TestEventsStreamSessionPopups(t *testing.T) {
	_, mux, maps := newTestAPI(t)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/viewer/events?session=s1", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	// The subscription starts inside the stream; keep changing the view
	// until the stream sees it.
	go func() {
		points := []concession.LngLat{{Lng: -7.85, Lat: 40.15}, {Lng: -8.4, Lat: 41.1}}
		for i := 0; ctx.Err() == nil; i++ {
			maps.Click("other", points[0])
			maps.Click("s1", points[i%2])
			time.Sleep(20 * time.Millisecond)
		}
	}()

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.Contains(line, "Mina X") || strings.Contains(line, "Barroso Norte") {
			return
		}
	}
	t.Fatalf("no popup patch received: %v", sc.Err())
}

func TestEventsStreamEndForgetsSession(t *testing.T) {
	_, mux, maps := newTestAPI(t)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/viewer/events?session=s2", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		points := []concession.LngLat{{Lng: -7.85, Lat: 40.15}, {Lng: -8.4, Lat: 41.1}}
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			maps.Click("s2", points[i%2])
			time.Sleep(20 * time.Millisecond)
		}
	}()

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	seen := false
	for !seen && sc.Scan() {
		line := sc.Text()
		seen = strings.Contains(line, "Mina X") || strings.Contains(line, "Barroso Norte")
	}
	close(stop)
	<-done
	if !seen {
		t.Fatalf("stream never delivered a change: %v", sc.Err())
	}
	if n := maps.Sessions(); n != 1 {
		t.Fatalf("sessions=%d while streaming, want 1", n)
	}

	cancel()
	resp.Body.Close()

	deadline := time.Now().Add(3 * time.Second)
	for maps.Sessions() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("sessions=%d after stream closed, want 0", maps.Sessions())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
