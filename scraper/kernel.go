package scraper

import (
	"io"

	"github.com/cilium/ebpf"
)

// kernel loads collections into the running kernel.
type kernel interface {
	load(spec *ebpf.CollectionSpec, debug bool) (collection, error)
}

// collection is a loaded BPF object.
type collection interface {
	attach(entry string) (iterator, error)
	Close() error
}

// iterator is an attached BPF iterator. *link.Iter satisfies it.
type iterator interface {
	Open() (io.ReadCloser, error)
	Close() error
}
