package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/marcelsud/timeherenow-example/demo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd(t *testing.T) {
	t.Run("success - list prints every step in order", func(t *testing.T) {
		cmd := newRootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--list"})

		require.NoError(t, cmd.Execute())
		assert.Equal(t, demo.StepNames(), strings.Fields(out.String()))
	})

	t.Run("error - unknown flag", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--nope"})

		assert.Error(t, cmd.Execute())
	})
}
