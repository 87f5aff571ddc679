package nextversion

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

// ModulePath returns the module path declared by the go.mod in dir.
func ModulePath(dir string) (string, error) {
	f, err := readGoMod(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", err
	}
	return f.Module.Mod.Path, nil
}

func readGoMod(path string) (*modfile.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading go.mod: %w", err)
	}
	f, err := modfile.Parse(path, data, nil)
	if err != nil {
		return nil, fmt.Errorf("parsing go.mod: %w", err)
	}
	if f.Module == nil {
		return nil, fmt.Errorf("module directive not found in %s", path)
	}
	return f, nil
}

// GoModulePathFor returns the module path a module must use to publish
// version: the base path for v0 and v1, or the base path with a /vN suffix.
func GoModulePathFor(modPath string, version SemanticVersion) string {
	base, _, ok := module.SplitPathVersion(modPath)
	if !ok {
		base = modPath
	}
	if version.Major < 2 {
		return base
	}
	return fmt.Sprintf("%s/v%d", base, version.Major)
}

// StampGoModule rewrites the module directive of a go.mod so that its major
// version suffix matches version. It reports whether the file changed.
func StampGoModule(goModPath string, version SemanticVersion) (bool, error) {
	f, err := readGoMod(goModPath)
	if err != nil {
		return false, err
	}
	newPath := GoModulePathFor(f.Module.Mod.Path, version)
	if newPath == f.Module.Mod.Path {
		return false, nil
	}
	if err := f.AddModuleStmt(newPath); err != nil {
		return false, fmt.Errorf("updating module path: %w", err)
	}
	out, err := f.Format()
	if err != nil {
		return false, fmt.Errorf("formatting go.mod: %w", err)
	}
	info, err := os.Stat(goModPath)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(goModPath, out, info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("writing go.mod: %w", err)
	}
	return true, nil
}
