// Package vars resolves the variable mapping handed to each step.
//
// Layers are applied lowest precedence first: step defaults, then suite-level
// vars, then run-wide extra vars. The reserved dry-run key is written last so
// that CLI input of the same key cannot mask a dry run.
package vars

import (
	"fmt"
	"sort"
	"strings"
)

// DryRunKey is injected into every step's variables when a run is a dry run.
const DryRunKey = "dry_run"

// MalformedVariableWarning reports a key=value token that could not be parsed.
type MalformedVariableWarning struct {
	Token  string
	Reason string
}

func (w MalformedVariableWarning) Error() string {
	return fmt.Sprintf("malformed variable %q: %s", w.Token, w.Reason)
}

// Merge builds a fresh map from the supplied layers. Later layers win per key.
func Merge(stepVars, suiteVars, extraVars map[string]string, dryRun bool) map[string]string {
	merged := make(map[string]string, len(stepVars)+len(suiteVars)+len(extraVars)+1)
	for _, layer := range []map[string]string{stepVars, suiteVars, extraVars} {
		for k, v := range layer {
			merged[k] = v
		}
	}
	if dryRun {
		merged[DryRunKey] = "true"
	}
	return merged
}

// ParsePairs converts repeated key=value tokens into a map. Tokens without
// '=' or with an empty key are skipped and returned as warnings; the value is
// everything after the first '='.
func ParsePairs(tokens []string) (map[string]string, []MalformedVariableWarning) {
	out := make(map[string]string, len(tokens))
	var warnings []MalformedVariableWarning
	for _, token := range tokens {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			warnings = append(warnings, MalformedVariableWarning{Token: token, Reason: "missing '='"})
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			warnings = append(warnings, MalformedVariableWarning{Token: token, Reason: "empty key"})
			continue
		}
		out[key] = value
	}
	return out, warnings
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Environ renders vars as environment entries named prefix+UPPER(key).
// Characters outside [A-Za-z0-9_] are replaced with '_'.
func Environ(prefix string, m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, k := range SortedKeys(m) {
		out = append(out, fmt.Sprintf("%s%s=%s", prefix, envName(k), m[k]))
	}
	return out
}

func envName(key string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(key) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
