// Package envsubst substitutes {env:NAME} tokens in JSON-derived values.
package envsubst

import "regexp"

var tokenRe = regexp.MustCompile(`\{env:([^}]+)\}`)

// LookupFunc resolves a variable name to its value. Unset variables
// must resolve to the empty string (os.Getenv already behaves this way).
type LookupFunc func(name string) string

// Expand walks a parsed JSON value and replaces every {env:NAME} token in
// string leaves with lookup(NAME). Arrays are expanded element-wise, object
// values recursively (keys are left alone), and every other kind of value
// passes through unchanged. The input is never mutated.
func Expand(v any, lookup LookupFunc) any {
	switch v := v.(type) {
	case string:
		return ExpandString(v, lookup)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = Expand(elem, lookup)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = Expand(val, lookup)
		}
		return out
	default:
		return v
	}
}

// ExpandString replaces every {env:NAME} token in s. Text outside tokens is
// preserved verbatim; NAME is one or more characters excluding '}'.
func ExpandString(s string, lookup LookupFunc) string {
	return tokenRe.ReplaceAllStringFunc(s, func(token string) string {
		name := token[len("{env:") : len(token)-1]
		return lookup(name)
	})
}
