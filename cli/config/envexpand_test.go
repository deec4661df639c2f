package config

import (
	"testing"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("DECOMP_TEST_HOST", "dec.example.com")
	t.Setenv("DECOMP_TEST_PORT", "9443")
	t.Setenv("DECOMP_TEST_EMPTY", "")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"set var", "host: ${DECOMP_TEST_HOST}", "host: dec.example.com"},
		{"unset var", "host: ${DECOMP_TEST_UNSET_12345}", "host: "},
		{"default when unset", "port: ${DECOMP_TEST_UNSET_12345:-9000}", "port: 9000"},
		{"default when empty", "port: ${DECOMP_TEST_EMPTY:-9000}", "port: 9000"},
		{"default ignored when set", "port: ${DECOMP_TEST_PORT:-9000}", "port: 9443"},
		{"multiple vars", "${DECOMP_TEST_HOST}:${DECOMP_TEST_PORT}", "dec.example.com:9443"},
		{"no vars", "no variables here", "no variables here"},
		{"bare dollar untouched", "cost: $10", "cost: $10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandEnv(tt.input); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpandEnv_NestedInYAML(t *testing.T) {
	t.Setenv("HOOK_TOKEN", "secret")

	input := `adapter:
  type: webhook
  headers:
    Authorization: Bearer ${HOOK_TOKEN}`

	got := ExpandEnv(input)
	want := `adapter:
  type: webhook
  headers:
    Authorization: Bearer secret`

	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}
