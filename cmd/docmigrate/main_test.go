package main_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	main "github.com/mgt2e/docmigrate/cmd/docmigrate"
	"github.com/mgt2e/docmigrate/kv"
	doctesting "github.com/mgt2e/docmigrate/testing"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// run executes docmigrate with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd, err := main.NewRootCommand(&stdout, &stderr)
	require.NoError(t, err)
	cmd.SetArgs(args)
	err = cmd.Execute()
	if testing.Verbose() {
		t.Log(stderr.String())
	}
	return stdout.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	store := "--bolt-path=" + filepath.Join(dir, "world.bolt")
	snapshot := filepath.Join(dir, "world.json")
	require.NoError(t, os.WriteFile(snapshot, []byte(doctesting.WorldSnapshot), 0600))

	out, err := run(t, "import", store, snapshot)
	require.NoError(t, err)
	require.Contains(t, out, "Imported 2 actors, 1 items, 1 scenes and 2 packs.")

	out, err = run(t, "info", store)
	require.NoError(t, err)
	require.Contains(t, out, "Schema version:  unknown (current 7)")
	require.Contains(t, out, "Packs:           2 (1 documents)")

	_, err = run(t, "migrate", store)
	require.Error(t, err, "a world without a recorded version needs --from-version")

	out, err = run(t, "migrate", store, "--from-version=0", "--dry-run")
	require.NoError(t, err)
	require.Contains(t, out, "Would migrate world from schema version 0 to 7.")

	metrics := filepath.Join(dir, "docmigrate.prom")
	backup := filepath.Join(dir, "world.backup.bolt")
	out, err = run(t, "migrate", store, "--from-version=0", "--log-level=debug",
		"--backup="+backup, "--metrics-textfile="+metrics)
	require.NoError(t, err)
	require.Contains(t, out, "Backed up ")
	require.FileExists(t, backup)
	require.Contains(t, out, "actors  2 migrated, 0 unchanged, 0 failed")
	require.Contains(t, out, "skipped pack mgt2e.core")

	out, err = run(t, "info", "--bolt-path="+backup)
	require.NoError(t, err)
	require.Contains(t, out, "Schema version:  unknown (current 7)")

	prom, err := os.ReadFile(metrics)
	require.NoError(t, err)
	require.Contains(t, string(prom), `docmigrate_world_documents_total{collection="actors",outcome="migrated"} 2`)
	require.Contains(t, string(prom), `docmigrate_store_documents{collection="actors"} 2`)

	out, err = run(t, "migrate", store)
	require.NoError(t, err)
	require.Equal(t, "World is already at schema version 7.\n", out)

	out, err = run(t, "export", store)
	require.NoError(t, err)
	var snap kv.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	require.NotNil(t, snap.SchemaVersion)
	require.Equal(t, 7, *snap.SchemaVersion)
	for _, raw := range snap.Items {
		require.Equal(t, "ap 5, auto 4", gjson.GetBytes(raw, "system.weapon.traits").String())
	}
	require.True(t, strings.HasPrefix(out, "{\n  \"schemaVersion\": 7,"))
}

func TestCommands_BadConfig(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "docmigrate.toml")
	require.NoError(t, os.WriteFile(config, []byte("[logging]\nformat = \"xml\"\n"), 0600))

	_, err := run(t, "info", "--bolt-path="+filepath.Join(dir, "world.bolt"), "--config="+config)
	require.Error(t, err)
}
