package main

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/flowgen/internal/enums"
	"github.com/matthewbaird/flowgen/internal/plan"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelInfo, parseLevel("chatty"))
}

func TestRelativeTo(t *testing.T) {
	root := t.TempDir()

	got, err := relativeTo(root, "src/domain/shared/types.ts")
	require.NoError(t, err)
	assert.Equal(t, "src/domain/shared/types.ts", got)

	got, err = relativeTo(root, filepath.Join(root, "src", "types.ts"))
	require.NoError(t, err)
	assert.Equal(t, "src/types.ts", got)

	_, err = relativeTo(root, filepath.Join(filepath.Dir(root), "elsewhere.ts"))
	assert.Error(t, err)
}

func TestRenderPlan(t *testing.T) {
	var buf bytes.Buffer
	renderPlan(&buf, []plan.File{
		{Path: "src/domain/shared/types.ts", Contents: []byte("x")},
		{Path: "src/domain/flows/a/b/decide.ts", Contents: []byte("abc"), Flow: "A", Slice: "B", Template: "command/decide.ts"},
	})
	out := buf.String()
	assert.Contains(t, out, "(shared enums)")
	assert.Contains(t, out, "command/decide.ts")
	assert.Contains(t, out, "src/domain/flows/a/b/decide.ts")
}

func TestRenderEnums(t *testing.T) {
	var buf bytes.Buffer
	def := enums.Definition{Name: "OrderStatus", Values: []string{"open", "in-progress"}, Signature: `"in-progress"|"open"`}
	renderEnums(&buf, []enums.Definition{def}, []enums.Definition{def})
	out := buf.String()
	assert.Contains(t, out, "OrderStatus")
	assert.Contains(t, out, "IN_PROGRESS=in-progress")
	assert.Contains(t, out, "yes")
}
