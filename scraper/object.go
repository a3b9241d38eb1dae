package scraper

import (
	"bytes"
	"fmt"

	"github.com/cilium/ebpf"
)

// Object provides the collection spec of a compiled BPF object.
type Object interface {
	CollectionSpec() (*ebpf.CollectionSpec, error)
}

// ObjectFunc adapts a loader function, such as the loadX functions generated
// by bpf2go, to an [Object].
type ObjectFunc func() (*ebpf.CollectionSpec, error)

// CollectionSpec calls f.
func (f ObjectFunc) CollectionSpec() (*ebpf.CollectionSpec, error) {
	return f()
}

// FromFile reads the object from an ELF file on disk each time the scraper
// starts.
func FromFile(path string) Object {
	return ObjectFunc(func() (*ebpf.CollectionSpec, error) {
		spec, err := ebpf.LoadCollectionSpec(path)
		if err != nil {
			return nil, fmt.Errorf("load object %s: %w", path, err)
		}
		return spec, nil
	})
}

// FromELF parses an object held in memory, typically one embedded with
// go:embed.
func FromELF(b []byte) Object {
	return ObjectFunc(func() (*ebpf.CollectionSpec, error) {
		spec, err := ebpf.LoadCollectionSpecFromReader(bytes.NewReader(b))
		if err != nil {
			return nil, fmt.Errorf("parse embedded object: %w", err)
		}
		return spec, nil
	})
}
