// Package docs embeds the rig manual topics and renders them for the
// terminal.
package docs

import (
	"embed"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
)

//go:embed *.md
var topicsFS embed.FS

// Topics lists the available topic names, sorted.
func Topics() []string {
	entries, err := topicsFS.ReadDir(".")
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), ".md"))
	}
	sort.Strings(names)
	return names
}

// Content returns the raw markdown for a topic.
func Content(name string) (string, bool) {
	data, err := topicsFS.ReadFile(name + ".md")
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Render converts topic markdown to terminal output. Plain markdown is
// returned unchanged when rendering is disabled or fails.
func Render(content string, styled bool) string {
	if !styled {
		return content
	}

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
