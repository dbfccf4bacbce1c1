package effect

import (
	"fmt"
	"maps"
	"strings"
)

// Format substitutes {key} placeholders in tmpl with values from vals.
// Placeholders with no matching key are left as written.
func Format(tmpl string, vals map[string]any) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	pairs := make([]string, 0, len(vals)*2)
	for k, v := range vals {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// Text is an effect's optional message template. Templates may reference
// any param the effect was decoded from as well as the outcome fields.
type Text struct {
	Message string `mapstructure:"message"`
	params  map[string]any
}

func (t *Text) setParams(params map[string]any) { t.params = maps.Clone(params) }

// vals merges params, outcome fields and names, in increasing precedence.
func (t Text) vals(fields map[string]any, src Source, dst Target) map[string]any {
	vals := make(map[string]any, len(t.params)+len(fields)+2)
	for k, v := range t.params {
		vals[k] = v
	}
	for k, v := range fields {
		vals[k] = v
	}
	vals["user"] = src.Name()
	vals["target"] = dst.Name()
	return vals
}

// message renders the template when set, otherwise the fallback.
func message(t Text, fallback string, fields map[string]any, src Source, dst Target) string {
	tmpl := t.Message
	if tmpl == "" {
		tmpl = fallback
	}
	return Format(tmpl, t.vals(fields, src, dst))
}
