package customizer

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var classPolicy = bluemonday.StrictPolicy()

// cleanClasses keeps a space separated list of plain class names.
func cleanClasses(s string) string {
	s = classPolicy.Sanitize(s)
	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		if strings.ContainsAny(f, `"'&;<>(){}`) {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

// cleanCSS drops anything that could open or close a tag around the style block.
func cleanCSS(s string) string {
	return strings.ReplaceAll(s, "<", "")
}
