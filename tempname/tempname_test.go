package tempname

import (
	"regexp"
	"testing"
)

var uuidPattern = `[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}`

func TestGenerate_Format(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"with extension", "service.tosca", `^service_` + uuidPattern + `\.tosca$`},
		{"full path", "/work/models/service.yaml", `^service_` + uuidPattern + `\.yaml$`},
		{"no extension", "Makefile", `^Makefile_` + uuidPattern + `$`},
		{"double extension keeps last", "archive.tar.gz", `^archive\.tar_` + uuidPattern + `\.gz$`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.input)
			if !regexp.MustCompile(tt.want).MatchString(got) {
				t.Errorf("Generate(%q) = %q, want match %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerate_NeverRepeats(t *testing.T) {
	seen := make(map[string]struct{})
	for range 1000 {
		name := Generate("model.tosca")
		if _, dup := seen[name]; dup {
			t.Fatalf("duplicate temp name %q", name)
		}
		seen[name] = struct{}{}
	}
}
