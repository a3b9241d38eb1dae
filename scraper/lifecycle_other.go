//go:build !linux

package scraper

import (
	"log/slog"

	"github.com/cilium/ebpf"
	"github.com/leodido/khost"
)

type unsupportedKernel struct{}

func newKernel(_ *slog.Logger) kernel {
	return unsupportedKernel{}
}

func (unsupportedKernel) load(_ *ebpf.CollectionSpec, _ bool) (collection, error) {
	return nil, khost.ErrUnsupportedPlatform
}
