package cheader

import (
	"os"
	"path/filepath"
	"strings"
)

// resolveInclude finds the file named by an #include directive. Quoted
// includes search the including file's directory first; both forms then
// search the include directories in order. Framework-style paths
// ("Foo/Foo.h") are also tried as "Foo.framework/Headers/Foo.h".
func resolveInclude(spec, from string, dirs []string) (string, bool) {
	spec = strings.TrimSpace(spec)
	if len(spec) < 2 {
		return "", false
	}
	quoted := spec[0] == '"'
	name := spec[1 : len(spec)-1]
	if name == "" {
		return "", false
	}
	if filepath.IsAbs(name) {
		return name, exists(name)
	}

	var search []string
	if quoted {
		search = append(search, filepath.Dir(from))
	}
	search = append(search, dirs...)

	candidates := []string{name}
	if framework, rest, ok := strings.Cut(name, "/"); ok {
		candidates = append(candidates, filepath.Join(framework+".framework", "Headers", rest))
	}
	for _, dir := range search {
		for _, c := range candidates {
			path := filepath.Join(dir, c)
			if exists(path) {
				return path, true
			}
		}
	}
	return "", false
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
