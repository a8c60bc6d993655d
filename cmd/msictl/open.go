package main

import (
	"fmt"

	"github.com/msikit/msikit/msiole"
	"github.com/msikit/msikit/pkg/msi"
)

// openPackage mmaps path and bootstraps a *msi.Package from it,
// wiring the shared verbose/quiet logger and tolerant flag into
// msi.OpenOptions. Callers must call the returned close function; it
// closes the package, which in turn closes the underlying source.
func openPackage(path string, tolerant bool) (*msi.Package, func() error, error) {
	src, err := msiole.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}

	pkg, err := msi.Open(src, msi.OpenOptions{
		Tolerant:           tolerant,
		Logger:             newLogger(),
		CollectDiagnostics: true,
	})
	if err != nil {
		src.Close()
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	closeFn := func() error {
		cerr := pkg.Close()
		return cerr
	}
	return pkg, closeFn, nil
}
