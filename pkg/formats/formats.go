// Package formats lists the binary formats kstree can parse on its own.
package formats

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kaitai-io/kaitai_struct_go_runtime/kaitai"
	"github.com/praetorian-inc/kstree/pkg/formats/png"
	"github.com/praetorian-inc/kstree/pkg/schema"
)

// ErrUnknownFormat is returned when no built-in format matches.
var ErrUnknownFormat = errors.New("unknown format")

// Format is a built-in parser together with the descriptors of the
// structures it produces.
type Format struct {
	Name        string
	Description string
	Extensions  []string
	Magic       []byte

	// Register adds the format's descriptors to a registry.
	Register func(*schema.Registry) error

	// Parse reads a root structure with position recording enabled.
	Parse func(*kaitai.Stream) (schema.Struct, error)
}

var builtin = []*Format{
	{
		Name:        "png",
		Description: "Portable Network Graphics image",
		Extensions:  []string{".png"},
		Magic:       png.Magic,
		Register:    png.Register,
		Parse: func(ks *kaitai.Stream) (schema.Struct, error) {
			f, err := png.Parse(ks, true)
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	},
}

// All returns every built-in format.
func All() []*Format {
	return builtin
}

// Lookup returns the format with the given name.
func Lookup(name string) (*Format, error) {
	for _, f := range builtin {
		if strings.EqualFold(f.Name, name) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
}

// Detect picks a format for a file from its leading bytes, falling back to
// its extension.
func Detect(path string, head []byte) (*Format, error) {
	for _, f := range builtin {
		if len(f.Magic) > 0 && bytes.HasPrefix(head, f.Magic) {
			return f, nil
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range builtin {
		for _, e := range f.Extensions {
			if e == ext {
				return f, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, filepath.Base(path))
}

// NewRegistry returns a registry holding the descriptors of every built-in format.
func NewRegistry() (*schema.Registry, error) {
	r := schema.NewRegistry()
	for _, f := range builtin {
		if err := f.Register(r); err != nil {
			return nil, fmt.Errorf("registering %s: %w", f.Name, err)
		}
	}
	return r, nil
}
