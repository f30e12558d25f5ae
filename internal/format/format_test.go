package format

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	f, err := New("", "")
	require.NoError(t, err)
	assert.IsType(t, Identity{}, f)

	f, err = New(Prettier, "")
	require.NoError(t, err)
	assert.Equal(t, PrettierFormatter{Bin: "prettier"}, f)

	_, err = New("gofmt", "")
	assert.Error(t, err)
}

func TestWhitespace(t *testing.T) {
	src := "\n\nimport x;  \n\n\n\nexport const a = 1;\t\r\n\n"
	out, err := WhitespaceFormatter{}.Format(context.Background(), "a.ts", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, "import x;\n\nexport const a = 1;\n", string(out))

	out, err = WhitespaceFormatter{}.Format(context.Background(), "a.ts", []byte("\n \n"))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPrettier_MissingBinary(t *testing.T) {
	_, err := PrettierFormatter{Bin: "/nonexistent/prettier"}.Format(context.Background(), "a.ts", []byte("x"))
	assert.Error(t, err)
}
