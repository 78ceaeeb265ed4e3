package convert

import (
	"strings"
)

// RenderFragment renders one file as "## path" followed by its body.
// Markdown files are embedded verbatim so their own formatting survives;
// everything else goes in a fenced block tagged with the file extension.
func RenderFragment(f FileFragment) string {
	var b strings.Builder
	writeFragment(&b, f)
	return b.String()
}

// Assemble builds the final document: repository heading, description, then
// every fragment in traversal order.
func Assemble(name, description string, frags []FileFragment) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(name)
	b.WriteString("\n\n")
	b.WriteString(description)
	b.WriteString("\n\n")
	for _, f := range frags {
		writeFragment(&b, f)
	}
	return b.String()
}

func writeFragment(b *strings.Builder, f FileFragment) {
	b.WriteString("## ")
	b.WriteString(f.Path)
	b.WriteString("\n\n")

	if isMarkdown(f.Path) {
		b.WriteString(f.Content)
		b.WriteString("\n\n")
		return
	}

	b.WriteString("```")
	b.WriteString(extension(f.Path))
	b.WriteString("\n")
	b.WriteString(f.Content)
	b.WriteString("\n```\n\n")
}

func isMarkdown(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}

// extension returns the text after the last "." of the filename, or "" when
// the filename has no dot.
func extension(path string) string {
	_, name := splitPath(path)
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return name[i+1:]
}
