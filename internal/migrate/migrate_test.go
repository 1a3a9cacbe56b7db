package migrate

import (
	"strings"
	"testing"
)

func TestLoad_OrdersEmbeddedMigrations(t *testing.T) {
	ms, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ms) == 0 {
		t.Fatalf("expected embedded migrations")
	}
	for i := 1; i < len(ms); i++ {
		if ms[i-1].Version >= ms[i].Version {
			t.Fatalf("migrations out of order: %d before %d", ms[i-1].Version, ms[i].Version)
		}
	}
	if ms[0].Version != 1 || !strings.Contains(ms[0].SQL, "time_entries") {
		t.Fatalf("unexpected first migration: %+v", ms[0])
	}
}

func TestParseVersion(t *testing.T) {
	cases := map[string]struct {
		want int
		ok   bool
	}{
		"0001_time_entries.sql": {1, true},
		"0042_x.sql":            {42, true},
		"nounderscore.sql":      {0, false},
		"_leading.sql":          {0, false},
		"abc_def.sql":           {0, false},
	}
	for name, tc := range cases {
		got, err := parseVersion(name)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("parseVersion(%q) = %d, %v; want %d", name, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("parseVersion(%q): expected error", name)
		}
	}
}
