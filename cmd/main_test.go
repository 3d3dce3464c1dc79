package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v2"

	kdt "github.com/ethereum-optimism/infra/op-keyword"
	"github.com/ethereum-optimism/infra/op-keyword/exitcodes"
)

func TestExitErrHandler(t *testing.T) {
	origExiter, origWriter := cli.OsExiter, cli.ErrWriter
	t.Cleanup(func() {
		cli.OsExiter = origExiter
		cli.ErrWriter = origWriter
	})

	tests := []struct {
		name     string
		err      error
		expected int
		called   bool
	}{
		{name: "no error", err: nil, called: false},
		{name: "runtime error", err: kdt.NewRuntimeError(errors.New("no suite")), expected: exitcodes.RuntimeErr, called: true},
		{name: "test failure", err: kdt.NewTestFailureError("FAIL"), expected: exitcodes.TestFailure, called: true},
		{name: "other error", err: errors.New("boom"), expected: exitcodes.TestFailure, called: true},
		{name: "exit coder", err: cli.Exit("custom", 7), expected: 7, called: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var code int
			called := false
			cli.OsExiter = func(c int) {
				code = c
				called = true
			}
			cli.ErrWriter = &bytes.Buffer{}

			exitErrHandler(nil, tt.err)
			assert.Equal(t, tt.called, called)
			if tt.called {
				assert.Equal(t, tt.expected, code)
			}
		})
	}
}

func TestNewApp(t *testing.T) {
	app := newApp()
	assert.Equal(t, "op-keyword", app.Name)
	cmd := app.Command("serve-remote")
	if assert.NotNil(t, cmd) {
		assert.NotEmpty(t, cmd.Flags)
	}
}
