//go:build linux

package scraper

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
)

type ciliumKernel struct {
	logger *slog.Logger
}

func newKernel(logger *slog.Logger) kernel {
	return ciliumKernel{logger: logger}
}

func (k ciliumKernel) load(spec *ebpf.CollectionSpec, debug bool) (collection, error) {
	var opts ebpf.CollectionOptions
	if debug {
		opts.Programs.LogLevel = ebpf.LogLevelBranch | ebpf.LogLevelStats
	}

	coll, err := ebpf.NewCollectionWithOptions(spec, opts)
	if err != nil {
		var ve *ebpf.VerifierError
		if errors.As(err, &ve) {
			k.logger.Debug("verifier rejected program", "log", fmt.Sprintf("%+v", ve))
		}
		return nil, err
	}

	if debug {
		for name, prog := range coll.Programs {
			k.logger.Debug("verifier log", "program", name, "log", prog.VerifierLog)
		}
	}
	return ciliumCollection{coll: coll}, nil
}

type ciliumCollection struct {
	coll *ebpf.Collection
}

func (c ciliumCollection) attach(entry string) (iterator, error) {
	prog, ok := c.coll.Programs[entry]
	if !ok {
		return nil, fmt.Errorf("program %q not found in collection", entry)
	}
	it, err := link.AttachIter(link.IterOptions{Program: prog})
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (c ciliumCollection) Close() error {
	c.coll.Close()
	return nil
}
