package blob

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// Only this package may import the concrete backends; everything else goes
// through blob.Store.
func TestOnlyBlobPackageImportsBackends(t *testing.T) {
	const (
		backends = "lifeexp/internal/infra/blob"
		facade   = "lifeexp/internal/blob"
	)

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "lifeexp/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	var violations []string
	seen := make(map[string]bool)
	for _, pkg := range pkgs {
		if underPath(pkg.PkgPath, facade) || underPath(pkg.PkgPath, backends) {
			continue
		}
		for imp := range pkg.Imports {
			if !underPath(imp, backends) {
				continue
			}
			v := pkg.PkgPath + " imports " + imp
			if !seen[v] {
				seen[v] = true
				violations = append(violations, v)
			}
		}
	}
	sort.Strings(violations)
	for _, v := range violations {
		t.Errorf("forbidden backend import: %s", v)
	}
}

func underPath(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+"/")
}
