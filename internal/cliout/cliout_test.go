package cliout

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterSuccessPrintsCheckmarkAndMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)
	w.Success("chunk verified")

	out := buf.String()
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "chunk verified")
}

func TestWriterWarningPrintsExclamationAndMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)
	w.Warning("chunk unverified")

	out := buf.String()
	assert.Contains(t, out, "!")
	assert.Contains(t, out, "chunk unverified")
}

func TestWriterStatusHasNoIcon(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)
	w.Statusf("indexed %d chunks", 3)

	assert.Equal(t, "indexed 3 chunks\n", buf.String())
}

func TestWriterToNonFileBufferNeverColors(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)
	assert.False(t, w.useColor)

	w.Success("ok")
	assert.NotContains(t, buf.String(), "\x1b[")
}
