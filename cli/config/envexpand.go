// Package config loads the decomp YAML config file.
package config

import (
	"os"
	"regexp"
	"strings"
)

// envRef matches ${VAR} and ${VAR:-default}.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv substitutes environment references in input.
//
// ${VAR} becomes the value of VAR. ${VAR:-default} becomes default when
// VAR is unset or empty. An unset VAR without a default becomes the empty
// string; Validate then reports the emptied key.
func ExpandEnv(input string) string {
	var b strings.Builder
	last := 0
	for _, m := range envRef.FindAllStringSubmatchIndex(input, -1) {
		b.WriteString(input[last:m[0]])
		last = m[1]

		if v := os.Getenv(input[m[2]:m[3]]); v != "" {
			b.WriteString(v)
			continue
		}
		if m[4] >= 0 {
			b.WriteString(input[m[4]:m[5]])
		}
	}
	b.WriteString(input[last:])
	return b.String()
}
