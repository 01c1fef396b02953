package production

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseSettings(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		check   func(t *testing.T, s Settings)
	}{
		{
			name: "Empty document keeps defaults",
			raw:  "",
			check: func(t *testing.T, s Settings) {
				if len(s.Levels) != 4 || s.ShapeCacheSize != 256 {
					t.Errorf("got %d levels, cache %d", len(s.Levels), s.ShapeCacheSize)
				}
			},
		},
		{
			name: "Override levels and speeds",
			raw: `
processor_speeds:
  belt: 4
  rotator: 0.5
levels:
  - shape: "Sr------"
    required: 3
`,
			check: func(t *testing.T, s Settings) {
				if len(s.Levels) != 1 || s.Levels[0].Shape != "Sr------" || s.Levels[0].Required != 3 {
					t.Errorf("Levels = %+v", s.Levels)
				}
				if got := s.ChargeDuration(Belt); got != 0.25 {
					t.Errorf("ChargeDuration(belt) = %v, want 0.25", got)
				}
				if got := s.ChargeDuration(Rotator); got != 2 {
					t.Errorf("ChargeDuration(rotator) = %v, want 2", got)
				}
			},
		},
		{name: "Negative speed", raw: "processor_speeds: {belt: -1}", wantErr: true},
		{name: "Bad goal shape", raw: "levels: [{shape: \"Cx------\", required: 1}]", wantErr: true},
		{name: "Zero required", raw: "levels: [{shape: \"Cu------\", required: 0}]", wantErr: true},
		{name: "No levels", raw: "levels: []", wantErr: true},
		{name: "Bad cache size", raw: "shape_cache_size: 0", wantErr: true},
		{name: "Malformed YAML", raw: "levels: [", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSettings([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSettings() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, s)
			}
		})
	}
}

func TestSettingsChargeDuration(t *testing.T) {
	s := DefaultSettings()
	s.ProcessorSpeeds[Checker] = 3

	tests := []struct {
		typ  ProcessorType
		want float64
	}{
		{Belt, 1},
		{Checker, 0.333},
		{Hub, 0},
		{"unknown", 0},
	}
	for _, tt := range tests {
		if got := s.ChargeDuration(tt.typ); got != tt.want {
			t.Errorf("ChargeDuration(%s) = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("shape_cache_size: 32\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.ShapeCacheSize != 32 {
		t.Errorf("ShapeCacheSize = %d, want 32", s.ShapeCacheSize)
	}
	if _, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadSettings() of a missing file succeeded")
	}
}
