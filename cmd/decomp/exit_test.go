package main

import (
	"errors"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestExitErrHandler_NilError(t *testing.T) {
	// Should not panic or exit on nil error
	exitErrHandler(nil, nil)
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "exit code 0 no message",
			err:      cli.Exit("", 0),
			wantCode: 0,
			wantMsg:  "",
		},
		{
			name:     "run failed without message",
			err:      cli.Exit("", 1),
			wantCode: 1,
			wantMsg:  "",
		},
		{
			name:     "usage error with message",
			err:      cli.Exit("invalid configuration: server.publicPort must be in 1..65535, got 0", 2),
			wantCode: 2,
			wantMsg:  "invalid configuration: server.publicPort must be in 1..65535, got 0",
		},
		{
			name:     "wrapped exit coder",
			err:      errors.Join(errors.New("context"), cli.Exit("inner error", 42)),
			wantCode: 42,
			wantMsg:  "inner error",
		},
		{
			name:     "regular error",
			err:      errors.New("regular error"),
			wantCode: 1,
			wantMsg:  "Error: regular error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := exitStatus(tt.err)
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			if msg != tt.wantMsg {
				t.Errorf("msg = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestNewApp_Commands(t *testing.T) {
	app := newApp()
	want := []string{"decompose", "optimize", "enhance", "history", "version"}
	if len(app.Commands) != len(want) {
		t.Fatalf("commands = %d, want %d", len(app.Commands), len(want))
	}
	for i, name := range want {
		if app.Commands[i].Name != name {
			t.Errorf("commands[%d] = %s, want %s", i, app.Commands[i].Name, name)
		}
	}
}
