package idgen

import (
	"sort"
	"strings"
	"testing"
	"time"
)

func TestNanoID_LengthAndAlphabet(t *testing.T) {
	for _, length := range []int{4, 8, 16} {
		id := NanoID(length)()
		if len(id) != length {
			t.Fatalf("NanoID(%d): got length %d", length, len(id))
		}
		for _, c := range id {
			if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'z')) {
				t.Fatalf("NanoID: unexpected character %q in %q", c, id)
			}
		}
	}
}

func TestNanoID_Uniqueness(t *testing.T) {
	gen := NanoID(12)
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := gen()
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate at iteration %d: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestUUIDv7_SortsByTime(t *testing.T) {
	gen := UUIDv7()
	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		ids = append(ids, gen())
		time.Sleep(2 * time.Millisecond)
	}
	if !sort.StringsAreSorted(ids) {
		t.Fatalf("v7 IDs generated in order must sort lexically: %v", ids)
	}
}

func TestUUIDv7_Shape(t *testing.T) {
	id := UUIDv7()()
	if len(id) != 36 || strings.Count(id, "-") != 4 {
		t.Fatalf("got %q, want canonical 8-4-4-4-12 form", id)
	}
}

func TestPrefixed_EventIDs(t *testing.T) {
	id := Prefixed("evt_", NanoID(8))()
	if !strings.HasPrefix(id, "evt_") {
		t.Fatalf("got %q, want evt_ prefix", id)
	}
	if len(id) != 4+8 {
		t.Fatalf("got length %d, want 12", len(id))
	}
}

func TestTimestamped_Format(t *testing.T) {
	id := Timestamped(NanoID(6))()
	if !strings.Contains(id, "T") || !strings.Contains(id, "Z_") {
		t.Fatalf("got %q, want 20060102T150405Z_<suffix>", id)
	}
}

func TestNew_UsesDefault(t *testing.T) {
	if id := New(); len(id) != 36 {
		t.Fatalf("got length %d, want a UUID from the default generator", len(id))
	}
}
