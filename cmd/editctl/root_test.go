package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"timeline-editor/internal/timeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestResolve_json(t *testing.T) {
	path := writeFile(t, "h.json", `[
		{"start":20,"end":80,"type":"trim"},
		{"start":40,"end":50,"type":"splice"},
		{"start":"bad","end":1,"type":"splice"}
	]`)

	out, stderr, err := run(t, "", "resolve", "--history", path, "--duration", "100")
	require.NoError(t, err)
	assert.Contains(t, stderr, "dropped 1")

	var got resolveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []timeline.KeepSegment{{Start: 20, End: 40}, {Start: 50, End: 80}}, got.Segments)
	assert.Equal(t, 50.0, got.Kept)
	assert.Equal(t, 1, got.Dropped)
	assert.False(t, got.Empty)
}

func TestResolve_yamlHistory(t *testing.T) {
	path := writeFile(t, "h.yaml", `
- start: 10
  end: 20
  type: splice
- start: 5
  type: trim
`)
	out, _, err := run(t, "", "resolve", "--history", path, "--duration", "30", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "segments:")
	assert.Contains(t, out, "kept_seconds: 20")
	assert.Contains(t, out, "dropped: 1")
}

func TestResolve_dropsEditsPastMediaEnd(t *testing.T) {
	out, _, err := run(t, `[{"start":10,"end":20,"type":"trim"},{"start":150,"end":200,"type":"trim"}]`,
		"resolve", "--history", "-", "--duration", "100")
	require.NoError(t, err)
	assert.Contains(t, out, `"kept_seconds": 10`)
	assert.Contains(t, out, `"dropped": 1`)
}

func TestResolve_stdinEmptyResolution(t *testing.T) {
	out, _, err := run(t, `[{"start":0,"end":10,"type":"splice"}]`,
		"resolve", "--history", "-", "--duration", "10")
	require.NoError(t, err)
	assert.Contains(t, out, `"empty": true`)
	assert.Contains(t, out, `"segments": []`)
}

func TestResolve_edl(t *testing.T) {
	path := writeFile(t, "h.json", `[{"start":10,"end":20,"type":"splice"}]`)
	out, _, err := run(t, "", "resolve", "--history", path, "--duration", "30",
		"--format", "edl", "--title", "cut", "--locator", "/media/a.mp4", "--fps", "24")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "TITLE: cut\nFCM: NON-DROP FRAME\n"))
	assert.Contains(t, out, "002  AX       V     C        00:00:20:00 00:00:30:00 00:00:10:00 00:00:20:00")
	assert.Contains(t, out, "* FROM CLIP NAME:  a.mp4")
}

func TestResolve_errors(t *testing.T) {
	path := writeFile(t, "h.json", `{"start":1}`)

	_, _, err := run(t, "", "resolve", "--history", path, "--duration", "10")
	assert.Error(t, err, "non-array history")

	_, _, err = run(t, "", "resolve", "--history", path)
	assert.Error(t, err, "missing duration")

	ok := writeFile(t, "ok.json", `[]`)
	_, _, err = run(t, "", "resolve", "--history", ok, "--duration", "10", "--format", "xml")
	assert.Error(t, err, "unknown format")
}

func TestRuler(t *testing.T) {
	path := writeFile(t, "h.json", `[{"start":10,"end":20,"type":"splice"}]`)
	out, _, err := run(t, "", "ruler", "--history", path, "--duration", "100", "--ticks", "4")
	require.NoError(t, err)

	var got struct {
		Window timeline.Window `json:"window"`
		Ticks  []timeline.Tick `json:"ticks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, timeline.Window{Start: 0, End: 100}, got.Window)
	require.Len(t, got.Ticks, 5)
	assert.Equal(t, 32.5, got.Ticks[1].Label)
	assert.Equal(t, 100.0, got.Ticks[4].Label)
}
