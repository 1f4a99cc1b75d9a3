package cli_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/civicarchive/councilcast/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/fs"
)

func execute(t *testing.T, args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd := cli.NewRootCmd(&cli.Dependencies{})
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func testConfig(t *testing.T) string {
	dir := fs.NewDir(t, "cli")
	t.Cleanup(dir.Remove)

	config := fmt.Sprintf(`
work_dir: %s
listing_url: http://127.0.0.1:1/ViewPublisher.php?view_id=42
database:
  path: %s
`, dir.Join("work"), dir.Join("history.db"))

	path := dir.Join("config.yaml")
	fs.Apply(t, dir, fs.WithFile("config.yaml", config))
	return path
}

func TestHistoryWithEmptyLedger(t *testing.T) {
	out, err := execute(t, "--config", testConfig(t), "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No uploads recorded")
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, "--config", "/no/such/config.yaml", "history")
	assert.ErrorContains(t, err, "failed to load configuration")
}

func TestRunRejectsInvalidPrivacy(t *testing.T) {
	_, err := execute(t, "--config", testConfig(t), "run", "--privacy", "friends")
	assert.ErrorContains(t, err, "run options are invalid")
}

func TestListReportsUnreachableArchive(t *testing.T) {
	_, err := execute(t, "--config", testConfig(t), "list")
	assert.ErrorContains(t, err, "127.0.0.1:1")
}
