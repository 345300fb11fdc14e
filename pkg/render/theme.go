package render

import (
	"sort"
	"strings"

	"github.com/goliatone/go-reportgen/pkg/render/template/gotemplate"
)

// CSSVarsStyle renders theme tokens as a :root rule. Token names are
// normalised to custom properties and values that could break out of the
// rule are dropped.
func CSSVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(":root{")
	for _, name := range names {
		prop := gotemplate.CSSVarName(name)
		val := strings.TrimSpace(vars[name])
		if prop == "" || val == "" || strings.ContainsAny(val, "<>{};") {
			continue
		}
		b.WriteString(prop)
		b.WriteString(":")
		b.WriteString(val)
		b.WriteString(";")
	}
	b.WriteString("}")
	return b.String()
}
