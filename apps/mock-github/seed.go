package main

import (
	"fmt"
	"strings"
)

// seedRepos populates the store with sample repositories that exercise every
// listing shape the converter handles: nested directories, Markdown and code
// files, dotfiles, a file too large to inline, a symlink and a submodule.
// Called before the server accepts requests.
func seedRepos(s *store) {
	s.repos["acme/widgets"] = &repoData{
		description: "Widget factory service",
		files: map[string]string{
			"README.md":                     widgetsReadme,
			".gitignore":                    "bin/\n*.out\n",
			"Makefile":                      "build:\n\tgo build ./...\n\ntest:\n\tgo test ./...\n",
			"go.mod":                        "module github.com/acme/widgets\n\ngo 1.25\n",
			"cmd/widgets/main.go":           widgetsMain,
			"internal/widget/widget.go":     widgetPkg,
			"internal/widget/README.md":     "# widget\n\nCore widget types.\n",
			"docs/architecture.markdown":    "# Architecture\n\nOne binary, one package.\n",
			"vendor/example.com/lib/lib.go": "package lib\n",
			"assets/logo.svg":               `<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"/>`,
			"testdata/large.txt":            largeFile(),
		},
		special: map[string]string{
			"docs/current":   "symlink",
			"third_party/ui": "submodule",
		},
	}

	s.repos["acme/empty"] = &repoData{files: map[string]string{}}

	s.repos["acme/notes"] = &repoData{
		description: "",
		files: map[string]string{
			"README.md": "Hello",
		},
	}
}

// largeFile returns content just over the inline threshold so the converter
// must follow download_url.
func largeFile() string {
	line := "the quick brown fox jumps over the lazy dog\n"
	return strings.Repeat(line, defaultLargeFile/len(line)+1)
}

const widgetsReadme = `# widgets

Builds widgets on demand.

## Usage

    go run ./cmd/widgets
`

var widgetsMain = fmt.Sprintf(`package main

import (
	"fmt"

	"github.com/acme/widgets/internal/widget"
)

func main() {
	fmt.Println(widget.New(%q))
}
`, "sprocket")

const widgetPkg = `package widget

// Widget is a named widget.
type Widget struct {
	Name string
}

// New returns a Widget called name.
func New(name string) Widget {
	return Widget{Name: name}
}
`
