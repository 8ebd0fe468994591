package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const examples = "../../examples/"

func TestSearchTextSummary(t *testing.T) {
	out, err := execute(t, "", "search", examples+"triangle.ms")
	require.NoError(t, err)
	assert.Contains(t, out, "structure: triangle (3 atoms)")
	assert.Contains(t, out, "element: H  bond length: 1.0000")
	assert.Contains(t, out, "spheres=0 circles=0 cut=0 multi=2")
	assert.Contains(t, out, "multi points:")
	assert.Contains(t, out, "cn=3 atoms [0 1 2]")
}

func TestSearchJSON(t *testing.T) {
	out, err := execute(t, "", "search", "-f", "json", "--markers", "-b", "1.0", examples+"triangle.ms")
	require.NoError(t, err)

	var doc struct {
		Structure string `json:"structure"`
		Summary   string `json:"summary"`
		Markers   []struct {
			Kind string `json:"kind"`
		} `json:"markers"`
		Marked struct {
			Atoms []json.RawMessage `json:"atoms"`
		} `json:"marked"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "triangle", doc.Structure)
	assert.Equal(t, "spheres=0 circles=0 cut=0 multi=2", doc.Summary)
	require.Len(t, doc.Markers, 2)
	assert.Equal(t, "multi-point", doc.Markers[0].Kind)
	assert.Len(t, doc.Marked.Atoms, 5)
}

func TestSearchFromStdinToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	src := `(atom "C" (vec3 0 0 0)) (atom "C" (vec3 1.5 0 0))`
	_, err := execute(t, src, "search", "-b", "1", "-f", "yaml", "-o", path, "-")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "summary: spheres=0 circles=1 cut=0 multi=0")
}

func TestSearchErrors(t *testing.T) {
	_, err := execute(t, "(atom \"C\"", "search", "-")
	assert.Error(t, err)

	_, err = execute(t, "", "search", examples+"missing.ms")
	assert.Error(t, err)

	_, err = execute(t, "", "search", "-o", "x.json", examples+"triangle.ms")
	assert.Error(t, err, "text output cannot go to a file")

	_, err = execute(t, "", "--log-level", "loud", "search", examples+"triangle.ms")
	assert.Error(t, err)
}

func TestElementsTable(t *testing.T) {
	out, err := execute(t, "", "elements", "--all")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 87, "header plus H..Rn")
	assert.Contains(t, lines[1], "H")
	assert.Contains(t, lines[1], "0.31")
}

func TestElementsForScript(t *testing.T) {
	out, err := execute(t, "", "elements", "--neighbours", examples+"octahedron.ms")
	require.NoError(t, err)
	assert.Contains(t, out, "Fe")
	assert.Contains(t, out, "available")
	assert.Contains(t, out, "neighbours")

	_, err = execute(t, "", "elements")
	assert.Error(t, err, "script required without --all")
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "tri.ms")
	src, err := os.ReadFile(examples + "triangle.ms")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(script, src, 0o644))

	tasks := filepath.Join(dir, "tasks.yaml")
	require.NoError(t, os.WriteFile(tasks, []byte(`
log_level: error
tasks:
  - script: tri.ms
    output: out/tri.json
  - name: smaller
    script: tri.ms
    bond_length: 0.5
`), 0o644))

	out, err := execute(t, "", "run", "-j", "2", tasks)
	require.NoError(t, err)
	assert.Contains(t, out, "tri")
	assert.Contains(t, out, "spheres=0 circles=0 cut=0 multi=2")
	assert.Contains(t, out, "spheres=3 circles=0 cut=0 multi=0")
	assert.FileExists(t, filepath.Join(dir, "out", "tri.json"))
}

func TestRunReportsFailedTasks(t *testing.T) {
	dir := t.TempDir()
	tasks := filepath.Join(dir, "tasks.yaml")
	require.NoError(t, os.WriteFile(tasks, []byte("tasks:\n  - script: missing.ms\n"), 0o644))

	out, err := execute(t, "", "run", tasks)
	require.Error(t, err)
	assert.Contains(t, out, "failed")
}

func TestMeshCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.json")
	_, err := execute(t, "", "mesh", "--cells", "16", "-o", path, examples+"triangle.ms")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var meshes []MeshData
	require.NoError(t, json.Unmarshal(data, &meshes))
	require.Len(t, meshes, 2)
	assert.Equal(t, "atoms", meshes[0].Label)
	assert.NotEmpty(t, meshes[0].Vertices)
}
