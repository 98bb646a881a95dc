package surface_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"testing/fstest"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/MrWong99/voiceselect/internal/assets"
	"github.com/MrWong99/voiceselect/internal/observe"
	"github.com/MrWong99/voiceselect/internal/override"
	overridemock "github.com/MrWong99/voiceselect/internal/override/mock"
	"github.com/MrWong99/voiceselect/internal/roster"
	"github.com/MrWong99/voiceselect/internal/surface"
	"github.com/MrWong99/voiceselect/internal/surface/mock"
	"github.com/MrWong99/voiceselect/internal/variant"
)

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m
}

// newEngine returns a bootstrapped engine over mario and fox with default
// variants on disk.
func newEngine(t *testing.T) *override.Engine {
	t.Helper()
	r, err := roster.New(roster.Entity{ID: "mario", Name: "Mario"}, roster.Entity{ID: "fox", Name: "Fox"})
	if err != nil {
		t.Fatalf("roster.New: %v", err)
	}
	fsys := fstest.MapFS{
		"VoiceSelector/default/vc_mario.nus3audio": {Data: bytes.Repeat([]byte{'d'}, 16)},
		"VoiceSelector/default/vc_fox.nus3audio":   {Data: bytes.Repeat([]byte{'d'}, 16)},
	}
	layout := assets.Layout{
		Scheme:     "rom:/",
		BasePath:   "VoiceSelector",
		Dirs:       variant.Dirs{Eng: "eng", Jp: "jp", Default: "default"},
		HashPrefix: "sound/bank/fighter_voice/",
		Extension:  "nus3audio",
	}
	eng := override.New(r, assets.NewFSReader(fsys, "rom:/"), layout, override.WithMetrics(testMetrics(t)))
	if _, err := eng.Bootstrap(context.Background(), &overridemock.Host{}); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	return eng
}

func TestController_Page(t *testing.T) {
	t.Parallel()
	eng := newEngine(t)
	eng.Apply(context.Background(), []override.Record{{Entity: "fox", Variant: variant.Jp}})

	page := surface.NewController(eng, &mock.Surface{}, surface.WithMetrics(testMetrics(t))).Page()
	want := []surface.Item{
		{ID: "mario", Name: "Mario", Selected: "default"},
		{ID: "fox", Name: "Fox", Selected: "jp"},
	}
	if len(page.Items) != len(want) {
		t.Fatalf("items = %+v; want %+v", page.Items, want)
	}
	for i := range want {
		if page.Items[i] != want[i] {
			t.Errorf("item %d = %+v; want %+v", i, page.Items[i], want[i])
		}
	}
}

func TestController_Show(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		surface   *mock.Surface
		wantMario variant.Variant
		wantFox   variant.Variant
	}{
		{
			name:      "submission applied",
			surface:   &mock.Surface{Result: surface.Result{LastURL: "http://localhost/mario%3DjpCSK_SPLITfox%3DengCSK_SPLIT"}},
			wantMario: variant.Jp,
			wantFox:   variant.Eng,
		},
		{
			name:      "dismissed",
			surface:   &mock.Surface{Result: surface.Result{LastURL: "http://localhost/"}},
			wantMario: variant.Default,
			wantFox:   variant.Default,
		},
		{
			name:      "surface error is a dismissal",
			surface:   &mock.Surface{Error: errors.New("window closed")},
			wantMario: variant.Default,
			wantFox:   variant.Default,
		},
		{
			name:      "foreign url ignored",
			surface:   &mock.Surface{Result: surface.Result{LastURL: "https://example.com/mario=jpCSK_SPLIT"}},
			wantMario: variant.Default,
			wantFox:   variant.Default,
		},
		{
			name:      "bad records do not block good ones",
			surface:   &mock.Surface{Result: surface.Result{LastURL: "http://localhost/wario=jpCSK_SPLITmarioCSK_SPLITfox=jpCSK_SPLIT"}},
			wantMario: variant.Default,
			wantFox:   variant.Jp,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			eng := newEngine(t)
			ctrl := surface.NewController(eng, tc.surface, surface.WithMetrics(testMetrics(t)))
			ctrl.Show(context.Background())

			if len(tc.surface.Pages()) != 1 {
				t.Fatalf("surface shown %d times; want 1", len(tc.surface.Pages()))
			}
			if v, _ := eng.Selections().Get("mario"); v != tc.wantMario {
				t.Errorf("mario = %v; want %v", v, tc.wantMario)
			}
			if v, _ := eng.Selections().Get("fox"); v != tc.wantFox {
				t.Errorf("fox = %v; want %v", v, tc.wantFox)
			}
		})
	}
}
