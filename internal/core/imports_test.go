package core_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

const modulePath = "github.com/casalinger/session-gateway/"

// The core packages depend only on each other and on internal/pkg.
func TestCoreDoesNotImportAdapters(t *testing.T) {
	forbidden := []string{
		modulePath + "internal/api",
		modulePath + "internal/infrastructure",
		modulePath + "cmd",
	}

	for _, dir := range []string{"domain", "ports", "service"} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("read %s: %v", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			f, err := parser.ParseFile(token.NewFileSet(), path, nil, parser.ImportsOnly)
			if err != nil {
				t.Fatalf("parse %s: %v", path, err)
			}
			for _, imp := range f.Imports {
				p, _ := strconv.Unquote(imp.Path.Value)
				for _, prefix := range forbidden {
					if p == prefix || strings.HasPrefix(p, prefix+"/") {
						t.Errorf("%s imports %s", path, p)
					}
				}
			}
		}
	}
}
