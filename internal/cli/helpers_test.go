package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const exampleRequest = `{
  "collection": "articles",
  "collection_relationships": {},
  "query": {
    "fields": {
      "id": {"type": "column", "column": "id"},
      "title": {"type": "column", "column": "title"}
    },
    "where": {
      "type": "binary_comparison_operator",
      "column": {"type": "column", "name": "author_id"},
      "operator": {"type": "equal"},
      "value": {"type": "scalar", "value": 1}
    },
    "order_by": {"elements": [
      {"target": {"type": "column", "name": "id"}, "order_direction": "desc"}
    ]}
  }
}`

// cmdOutput is the captured result of one root command execution.
type cmdOutput struct {
	stdout string
	stderr string
	err    error
}

// execute runs the root command with args, optionally feeding stdin.
func execute(t *testing.T, stdin string, args ...string) cmdOutput {
	t.Helper()

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return cmdOutput{stdout: out.String(), stderr: errOut.String(), err: err}
}

// writeTempFile writes content to name inside a fresh temp dir.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// usersDir writes a dataset directory holding a single users collection.
func usersDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.json"),
		[]byte(`[{"id": 1, "name": "Grace"}, {"id": 2, "name": "Edsger"}]`), 0o644))
	return dir
}
