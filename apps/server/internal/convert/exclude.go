package convert

import (
	"slices"
	"strings"
)

// Rules are the three independent exclusion criteria applied to every path.
type Rules struct {
	ExtensionSuffixes []string // matched against the end of the full path
	DirectoryPrefixes []string // matched against the start of the directory component
	ExactFilenames    []string // matched against the bare filename
}

// ParseRules builds Rules from comma-separated request fields.
// Items are trimmed; empty items are dropped because an empty suffix or
// prefix would match every path.
func ParseRules(types, dirs, files string) Rules {
	return Rules{
		ExtensionSuffixes: splitList(types),
		DirectoryPrefixes: splitList(dirs),
		ExactFilenames:    splitList(files),
	}
}

// Merge returns the union of r and other. Neither input is modified.
func (r Rules) Merge(other Rules) Rules {
	return Rules{
		ExtensionSuffixes: union(r.ExtensionSuffixes, other.ExtensionSuffixes),
		DirectoryPrefixes: union(r.DirectoryPrefixes, other.DirectoryPrefixes),
		ExactFilenames:    union(r.ExactFilenames, other.ExactFilenames),
	}
}

// Empty reports whether r excludes nothing.
func (r Rules) Empty() bool {
	return len(r.ExtensionSuffixes) == 0 && len(r.DirectoryPrefixes) == 0 && len(r.ExactFilenames) == 0
}

// ShouldExclude reports whether path is excluded by any rule in r.
func ShouldExclude(path string, r Rules) bool {
	dir, name := splitPath(path)

	for _, suffix := range r.ExtensionSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	for _, prefix := range r.DirectoryPrefixes {
		if strings.HasPrefix(dir, prefix) {
			return true
		}
	}
	return slices.Contains(r.ExactFilenames, name)
}

// ExcludesSubtree reports whether every path below dir is excluded by a
// directory rule. Every descendant's directory component starts with dir, so
// a prefix match here lets the walk skip listing dir at all.
func ExcludesSubtree(dir string, r Rules) bool {
	for _, prefix := range r.DirectoryPrefixes {
		if strings.HasPrefix(dir, prefix) {
			return true
		}
	}
	return false
}

// splitPath splits at the last "/". Root-level paths have an empty dir.
func splitPath(path string) (dir, name string) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	for _, s := range b {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
