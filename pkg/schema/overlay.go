package schema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Overlay reclassifies members per type without touching their descriptors.
//
// YAML format:
//
//	types:
//	  png_chunk:
//	    instances: [is_critical]
type Overlay struct {
	Types map[string]TypeOverlay `yaml:"types"`
}

// TypeOverlay holds the overrides for a single type.
type TypeOverlay struct {
	Instances []string `yaml:"instances,omitempty"`
}

// InstancesOf returns the extra instance members for typeName. Safe on a nil overlay.
func (o *Overlay) InstancesOf(typeName string) []string {
	if o == nil {
		return nil
	}
	return o.Types[typeName].Instances
}

// LoadOverlay parses an overlay document.
func LoadOverlay(r io.Reader) (*Overlay, error) {
	var o Overlay
	if err := yaml.NewDecoder(r).Decode(&o); err != nil {
		if err == io.EOF {
			return &Overlay{}, nil
		}
		return nil, fmt.Errorf("parsing overlay: %w", err)
	}
	return &o, nil
}

// LoadOverlayFile parses the overlay at path.
func LoadOverlayFile(path string) (*Overlay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening overlay: %w", err)
	}
	defer f.Close()

	return LoadOverlay(f)
}
