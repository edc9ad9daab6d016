package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/quill/pkg/codec"
	"github.com/chazu/quill/pkg/sketch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the CLI with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "s.quill")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestEvalCommandJSON(t *testing.T) {
	stdout, stderr, err := run(t, "eval", "examples/arrow.quill")
	require.NoError(t, err, stderr)

	sk, err := codec.UnmarshalJSON([]byte(stdout))
	require.NoError(t, err)
	assert.Equal(t, 3, sk.NumStrokes())
	assert.Equal(t, 2, sk.NumShapes())
}

func TestEvalCommandCBORToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "arrow.cbor")
	_, stderr, err := run(t, "eval", "examples/arrow.quill", "--format", "cbor", "--out", out, "--beautify",
		"--config", "examples/session.yaml")
	require.NoError(t, err, stderr)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, codec.FormatCBOR, codec.Detect(data))

	stdout, _, err := run(t, "inspect", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 strokes")
	assert.Contains(t, stdout, "Arrow")
	assert.Contains(t, stdout, "units pixel")
}

func TestEvalCommandErrors(t *testing.T) {
	path := writeScript(t, "(point 1)")
	_, stderr, err := run(t, "eval", path)
	assert.ErrorIs(t, err, errFindings)
	assert.Contains(t, stderr, "error")

	_, _, err = run(t, "eval", path, "--format", "xml")
	assert.Error(t, err)

	_, _, err = run(t, "eval", filepath.Join(t.TempDir(), "missing.quill"))
	assert.Error(t, err)

	_, _, err = run(t, "eval")
	assert.Error(t, err)
}

func TestEvalCommandStrict(t *testing.T) {
	path := writeScript(t, "(stroke (point 0 0 5) (point 1 1 2))")

	_, stderr, err := run(t, "eval", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "warning")

	_, _, err = run(t, "eval", path, "--strict")
	assert.ErrorIs(t, err, errFindings)
}

func TestInspectGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{]"), 0o644))
	_, _, err := run(t, "inspect", path)
	assert.Error(t, err)
}

func TestInspectSelfNestedShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.json")
	doc := `{"version":1,"points":[],"strokes":[],"shapes":[{"label":"Loop","subshapes":[0]}],"top_shapes":[0]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	_, _, err := run(t, "inspect", path)
	require.ErrorIs(t, err, codec.ErrBadReference)
}

func TestPrintSummaryNestingCycle(t *testing.T) {
	sk := sketch.New()
	a := sk.NewShape()
	a.Label = "A"
	b := sk.NewShape()
	b.Label = "B"
	require.NoError(t, a.AddSubShape(b))
	require.NoError(t, b.AddSubShape(a))
	require.NoError(t, sk.AddShape(a))

	var out bytes.Buffer
	printSummary(&out, sk)
	assert.Contains(t, out.String(), `"A" (cycle)`)
	assert.Contains(t, out.String(), "contains itself")
	assert.NotContains(t, out.String(), "A: 0 strokes, 0 aliases, bounds")
}

func TestRenderCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "arrow.png")
	_, stderr, err := run(t, "render", "examples/arrow.quill", "--out", out, "--margin", "2")
	require.NoError(t, err, stderr)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	// Ink spans x 10..100 and y 35..80, plus the margin. PNG drops the
	// origin, so sketch (x, y) is pixel (x-8, y-33).
	b := img.Bounds()
	assert.Equal(t, 94, b.Dx())
	assert.Equal(t, 49, b.Dy())

	white := []uint32{0xffff, 0xffff, 0xffff}
	r, g, bl, _ := img.At(0, 0).RGBA()
	assert.Equal(t, white, []uint32{r, g, bl}, "empty corner")
	r, g, bl, _ = img.At(55-8, 50-33).RGBA()
	assert.NotEqual(t, white, []uint32{r, g, bl}, "middle of the shaft")
}

func TestRenderEmptySketch(t *testing.T) {
	path := writeScript(t, "")
	_, _, err := run(t, "render", path, "--out", filepath.Join(t.TempDir(), "x.png"))
	assert.Error(t, err)
}
