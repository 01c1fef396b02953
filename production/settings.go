package production

import (
	"fmt"
	"os"

	"github.com/TheBitDrifter/foundry"
	"github.com/TheBitDrifter/foundry/shape"
	"gopkg.in/yaml.v3"
)

// Level is one hub goal: deliver Required copies of Shape.
type Level struct {
	Shape    string `yaml:"shape"`
	Required int    `yaml:"required"`
}

// Settings holds the tuning of a production network. Every lockstep peer must load the same
// settings.
type Settings struct {
	// ProcessorSpeeds is items per second per processor type. Zero means instant.
	ProcessorSpeeds map[ProcessorType]float64 `yaml:"processor_speeds"`
	Levels          []Level                   `yaml:"levels"`
	ShapeCacheSize  int                       `yaml:"shape_cache_size"`
}

func DefaultSettings() Settings {
	return Settings{
		ProcessorSpeeds: map[ProcessorType]float64{
			Belt:       1,
			Rotator:    1,
			RotatorCCW: 1,
			Checker:    1,
			Hub:        0,
		},
		Levels: []Level{
			{Shape: "CuCuCuCu", Required: 30},
			{Shape: "----CuCu", Required: 40},
			{Shape: "RuRuRuRu", Required: 70},
			{Shape: "RuRu----:CrCrCrCr", Required: 70},
		},
		ShapeCacheSize: 256,
	}
}

// LoadSettings reads a YAML settings file on top of DefaultSettings.
func LoadSettings(path string) (Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	return ParseSettings(raw)
}

func ParseSettings(raw []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	for typ, speed := range s.ProcessorSpeeds {
		if speed < 0 {
			return fmt.Errorf("processor %s: negative speed %v", typ, speed)
		}
	}
	if len(s.Levels) == 0 {
		return fmt.Errorf("settings define no levels")
	}
	for i, level := range s.Levels {
		if _, err := shape.Decode(level.Shape); err != nil {
			return fmt.Errorf("level %d: %w", i+1, err)
		}
		if level.Required <= 0 {
			return fmt.Errorf("level %d: required must be positive, got %d", i+1, level.Required)
		}
	}
	if s.ShapeCacheSize <= 0 {
		return fmt.Errorf("shape_cache_size must be positive, got %d", s.ShapeCacheSize)
	}
	return nil
}

// ChargeDuration is the quantized time one charge of typ takes.
func (s Settings) ChargeDuration(typ ProcessorType) float64 {
	speed := s.ProcessorSpeeds[typ]
	if speed <= 0 {
		return 0
	}
	return foundry.Quantize(1 / speed)
}
