package variant_test

import (
	"encoding/json"
	"testing"

	"github.com/MrWong99/voiceselect/internal/variant"
)

func TestZeroValueIsDefault(t *testing.T) {
	t.Parallel()
	var v variant.Variant
	if v != variant.Default {
		t.Fatalf("zero value = %v; want default", v)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag    string
		want   variant.Variant
		wantOK bool
	}{
		{"eng", variant.Eng, true},
		{"jp", variant.Jp, true},
		{"default", variant.Default, true},
		{"fr", variant.Eng, false},
		{"", variant.Eng, false},
		{"ENG", variant.Eng, false},
	}

	for _, tc := range tests {
		t.Run(tc.tag, func(t *testing.T) {
			t.Parallel()
			got, ok := variant.Parse(tc.tag)
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("Parse(%q) = (%v, %v); want (%v, %v)", tc.tag, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestString_RoundTripsThroughParse(t *testing.T) {
	t.Parallel()
	for _, v := range variant.All {
		got, ok := variant.Parse(v.String())
		if !ok || got != v {
			t.Errorf("Parse(%q) = (%v, %v); want (%v, true)", v.String(), got, ok, v)
		}
	}
}

func TestUnmarshalText_RejectsUnknown(t *testing.T) {
	t.Parallel()
	var m map[string]variant.Variant
	if err := json.Unmarshal([]byte(`{"mario":"kr"}`), &m); err == nil {
		t.Fatal("expected error for unknown tag")
	}
	if err := json.Unmarshal([]byte(`{"mario":"jp"}`), &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m["mario"] != variant.Jp {
		t.Errorf("mario = %v; want jp", m["mario"])
	}
}

func TestDirs_For(t *testing.T) {
	t.Parallel()
	d := variant.Dirs{Eng: "us", Jp: "ja", Default: "base"}
	cases := map[variant.Variant]string{
		variant.Eng:          "us",
		variant.Jp:           "ja",
		variant.Default:      "base",
		variant.Variant(200): "base",
	}
	for v, want := range cases {
		if got := d.For(v); got != want {
			t.Errorf("For(%v) = %q; want %q", v, got, want)
		}
	}
}
