package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomHex(t *testing.T) {
	t.Parallel()

	a := randomHex(16)
	b := randomHex(16)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.Len(t, randomHex(0), 32)
}

func TestReadPassword(t *testing.T) {
	t.Parallel()

	pw, err := readPassword(strings.NewReader("s3cret-pass\r\nignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret-pass", pw)

	pw, err = readPassword(strings.NewReader("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", pw)

	_, err = readPassword(strings.NewReader("\n"))
	assert.Error(t, err)
}

// writeConfig points the CLI at a SQLite file inside a temp dir.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := fmt.Sprintf(`[database]
driver = "sqlite"
dsn = "file:%s"

[log]
level = "warn"
format = "json"
`, filepath.ToSlash(filepath.Join(dir, "salon.db")))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	a := newApp(&out, &logs)
	a.root.SetArgs(args)
	a.root.SetIn(strings.NewReader(stdin))
	a.root.SetErr(&logs)
	err := a.Execute()
	return out.String(), err
}

func TestCLI_MigrateAndUsers(t *testing.T) {
	cfg := writeConfig(t)

	out, err := runCLI(t, "", "--config", cfg, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "current version: none")
	assert.Contains(t, out, "pending")

	out, err = runCLI(t, "", "--config", cfg, "migrate")
	require.NoError(t, err)
	assert.NotContains(t, out, "applied 0 ")

	out, err = runCLI(t, "", "--config", cfg, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "applied 0 migration(s)")

	out, err = runCLI(t, "", "--config", cfg, "migrate", "status")
	require.NoError(t, err)
	assert.NotContains(t, out, "pending")

	out, err = runCLI(t, "first-password\n", "--config", cfg, "user", "create", "reception", "--admin")
	require.NoError(t, err)
	assert.Contains(t, out, "created user reception")

	_, err = runCLI(t, "other-password\n", "--config", cfg, "user", "create", "reception")
	assert.Error(t, err)

	out, err = runCLI(t, "second-password\n", "--config", cfg, "user", "passwd", "reception")
	require.NoError(t, err)
	assert.Contains(t, out, "password updated for reception")

	_, err = runCLI(t, "second-password\n", "--config", cfg, "user", "passwd", "nobody")
	assert.Error(t, err)
}

func TestCLI_ConfigErrors(t *testing.T) {
	_, err := runCLI(t, "", "--config", filepath.Join(t.TempDir(), "missing.toml"), "migrate")
	assert.Error(t, err)

	out, err := runCLI(t, "", "--config", filepath.Join(t.TempDir(), "missing.toml"), "version")
	require.NoError(t, err)
	assert.Equal(t, "salon dev\n", out)
}
