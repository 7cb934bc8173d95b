package core

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestDerivationPackagesStayPure keeps the record derivation packages free of
// storage, transport and application imports so they can run anywhere.
func TestDerivationPackagesStayPure(t *testing.T) {
	pure := []string{
		"eicrcore/internal/cable",
		"eicrcore/internal/device",
		"eicrcore/internal/maxzs",
		"eicrcore/internal/points",
		"eicrcore/internal/builder",
		"eicrcore/internal/bulk",
		"eicrcore/internal/extract",
		"eicrcore/internal/presets",
	}
	forbidden := []string{
		"eicrcore/internal/infra",
		"eicrcore/internal/archive",
		"eicrcore/internal/events",
		"eicrcore/internal/core",
		"eicrcore/internal/session",
		"eicrcore/internal/api",
	}

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports}
	pkgs, err := packages.Load(cfg, pure...)
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	if len(pkgs) != len(pure) {
		t.Fatalf("loaded %d packages, want %d", len(pkgs), len(pure))
	}

	var violations []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			t.Errorf("%s: %v", pkg.PkgPath, e)
		}
		for importPath := range pkg.Imports {
			for _, prefix := range forbidden {
				if importPath == prefix || strings.HasPrefix(importPath, prefix+"/") {
					violations = append(violations, pkg.PkgPath+" -> "+importPath)
				}
			}
		}
	}
	sort.Strings(violations)
	for _, v := range violations {
		t.Errorf("forbidden import: %s", v)
	}
}
