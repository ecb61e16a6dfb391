package dominject_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hazyhaar/dominject"
	"github.com/hazyhaar/dominject/fragment"
)

const hostPage = `<!doctype html><html><head><title>lg</title></head><body>
<main>
  <div class="query-stack"><form action="/query"><input name="target"></form></div>
  <p>results</p>
</main>
</body></html>`

func quietOptions(sinks ...dominject.Sink) dominject.Options {
	return dominject.Options{
		PanelDelay:     time.Millisecond,
		AnchorRetries:  1,
		AnchorInterval: time.Millisecond,
		SettleDelay:    5 * time.Millisecond,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Sinks:          sinks,
	}
}

func TestNew_NilOverridesYieldDefaults(t *testing.T) {
	inj := dominject.New(nil, quietOptions())
	defer inj.Close()

	cfg := inj.Config()
	def := dominject.DefaultConfig()
	if cfg.CurrentLocation != def.CurrentLocation {
		t.Fatalf("CurrentLocation = %q, want %q", cfg.CurrentLocation, def.CurrentLocation)
	}
	if len(cfg.Locations) != len(def.Locations) {
		t.Fatalf("Locations = %d, want %d", len(cfg.Locations), len(def.Locations))
	}
}

func TestNew_SuppliedKeyReplacesWholesale(t *testing.T) {
	locs := []dominject.Location{
		{ID: "sto", Name: "Stockholm", URL: "https://sto.lg.example.net"},
	}
	inj := dominject.New(&dominject.Overrides{Locations: &locs}, quietOptions())
	defer inj.Close()

	cfg := inj.Config()
	if len(cfg.Locations) != 1 || cfg.Locations[0].ID != "sto" {
		t.Fatalf("Locations = %+v, want the single supplied entry", cfg.Locations)
	}
	// Untouched keys keep their defaults.
	if !cfg.SpeedTest.Enabled || len(cfg.SpeedTest.Files) == 0 {
		t.Fatalf("SpeedTest default lost: %+v", cfg.SpeedTest)
	}
}

func TestRun_BootstrapsAndSurvivesSettlePass(t *testing.T) {
	doc, err := dominject.NewMemDocument("https://lg.example.net/", hostPage)
	if err != nil {
		t.Fatalf("NewMemDocument: %v", err)
	}

	var mu sync.Mutex
	var types []string
	cb := dominject.NewCallbackSink(func(_ context.Context, ev dominject.Event) error {
		mu.Lock()
		types = append(types, ev.Type)
		mu.Unlock()
		return nil
	})

	inj := dominject.New(nil, quietOptions(cb))
	defer inj.Close()

	stop, err := inj.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer stop()

	// Let the post-load settle pass run.
	time.Sleep(100 * time.Millisecond)

	nodes, err := doc.FindAllX(`//*[@id='` + fragment.NavID + `']`)
	if err != nil {
		t.Fatalf("FindAllX: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("nav count after both passes = %d, want 1", len(nodes))
	}
	panels, err := doc.FindAllX(`//*[@id='` + fragment.PanelID + `']`)
	if err != nil {
		t.Fatalf("FindAllX: %v", err)
	}
	if len(panels) != 1 {
		t.Fatalf("panel count after both passes = %d, want 1", len(panels))
	}

	stats := inj.Stats()
	if len(stats) != 1 || stats[0].Mounts != 2 {
		t.Fatalf("Stats = %+v, want one controller with 2 mounts", stats)
	}

	mu.Lock()
	got := append([]string(nil), types...)
	mu.Unlock()
	want := []string{
		dominject.EventMounted, dominject.EventPanelMounted,
		dominject.EventMounted, dominject.EventPanelMounted,
	}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
}

func TestRun_ObservesThemeFlips(t *testing.T) {
	doc, err := dominject.NewMemDocument("https://lg.example.net/", hostPage)
	if err != nil {
		t.Fatalf("NewMemDocument: %v", err)
	}

	inj := dominject.New(nil, quietOptions())
	defer inj.Close()

	stop, err := inj.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer stop()
	time.Sleep(100 * time.Millisecond)

	doc.SetBodyClass("dark")

	stats := inj.Stats()
	if len(stats) != 1 || stats[0].Remounts != 1 {
		t.Fatalf("Stats = %+v, want 1 remount", stats)
	}
	if stats[0].Mode != "dark" {
		t.Fatalf("Mode = %q, want dark", stats[0].Mode)
	}
	out, err := doc.HTML()
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	dark := dominject.DefaultConfig().Theme.Dark
	if !strings.Contains(out, dark.Accent) {
		t.Fatalf("dark accent %q not rendered", dark.Accent)
	}

	stop()
	doc.SetBodyClass("light")
	if got := inj.Stats()[0].Remounts; got != 1 {
		t.Fatalf("Remounts after stop = %d, want 1", got)
	}
}
