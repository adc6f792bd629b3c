package device

import (
	"fmt"
	"os"

	"github.com/urmzd/devicecontrols/pkg/i18n"
	"gopkg.in/yaml.v3"
)

// Built-in control ids
const (
	ToggleButtonID = "toggle_button_id"
	SliderButtonID = "slider_button_id"
)

// DefaultCatalog returns the two built-in sample controls in English.
func DefaultCatalog() []Descriptor {
	return LocalizedCatalog(nil)
}

// LocalizedCatalog returns the built-in sample controls with titles and
// subtitles in t's language. A nil translator yields English.
func LocalizedCatalog(t *i18n.Translator) []Descriptor {
	return []Descriptor{
		{
			ID:       ToggleButtonID,
			Title:    t.T(i18n.KeyToggleSampleTitle),
			Subtitle: t.T(i18n.KeyToggleSampleSubtitle),
			Kind:     KindToggle,
			Type:     DeviceTypeFan,
		},
		{
			ID:       SliderButtonID,
			Title:    t.T(i18n.KeySliderSampleTitle),
			Subtitle: t.T(i18n.KeySliderSampleSubtitle),
			Kind:     KindRange,
			Type:     DeviceTypeLight,
			Range: &Range{
				Min:     0,
				Max:     10,
				Step:    1,
				Initial: 1,
				Format:  "%.0f",
			},
		},
	}
}

// catalogFile is the on-disk layout of a catalog:
//
//	controls:
//	  - id: porch_light
//	    title: Porch light
//	    kind: toggle
//	    type: light
type catalogFile struct {
	Controls []Descriptor `yaml:"controls"`
}

// LoadCatalog reads descriptors from a YAML file.
// An empty path returns DefaultCatalog.
func LoadCatalog(path string) ([]Descriptor, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog document.
func ParseCatalog(data []byte) ([]Descriptor, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if len(f.Controls) == 0 {
		return nil, fmt.Errorf("%w: no controls", ErrInvalidCatalog)
	}
	return f.Controls, nil
}
