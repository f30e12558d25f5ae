// Package format post-processes rendered source before it enters the plan.
package format

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Formatter normalizes the source of one generated file. path is used only
// to pick a parser (by extension) and in error messages.
type Formatter interface {
	Format(ctx context.Context, path string, src []byte) ([]byte, error)
}

// Names accepted by New.
const (
	None       = "none"
	Whitespace = "whitespace"
	Prettier   = "prettier"
)

// New returns the formatter called name. bin is the prettier executable and
// is ignored by the other formatters.
func New(name, bin string) (Formatter, error) {
	switch name {
	case "", None:
		return Identity{}, nil
	case Whitespace:
		return WhitespaceFormatter{}, nil
	case Prettier:
		if bin == "" {
			bin = "prettier"
		}
		return PrettierFormatter{Bin: bin}, nil
	}
	return nil, fmt.Errorf("unknown formatter %q", name)
}

// Identity returns its input unchanged.
type Identity struct{}

func (Identity) Format(_ context.Context, _ string, src []byte) ([]byte, error) { return src, nil }

// WhitespaceFormatter strips trailing whitespace, drops leading blank lines,
// collapses runs of blank lines into one and ends the file with exactly one
// newline.
type WhitespaceFormatter struct{}

func (WhitespaceFormatter) Format(_ context.Context, _ string, src []byte) ([]byte, error) {
	lines := strings.Split(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n")
	var out []string
	blank := true // suppresses leading blank lines
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, l)
			continue
		}
		blank = false
		out = append(out, l)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return []byte{}, nil
	}
	return []byte(strings.Join(out, "\n") + "\n"), nil
}

// PrettierFormatter pipes source through an external prettier binary.
type PrettierFormatter struct {
	Bin  string
	Args []string // extra arguments, e.g. --config
}

func (p PrettierFormatter) Format(ctx context.Context, path string, src []byte) ([]byte, error) {
	args := append(append([]string(nil), p.Args...), "--stdin-filepath", path)
	cmd := exec.CommandContext(ctx, p.Bin, args...)
	cmd.Stdin = bytes.NewReader(src)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("prettier %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
