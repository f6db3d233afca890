package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgaunet/s3-nocheck-resource/internal/testutil"
	"github.com/sgaunet/s3-nocheck-resource/pkg/buildinfo"
	"github.com/sgaunet/s3-nocheck-resource/pkg/config"
	"github.com/sgaunet/s3-nocheck-resource/pkg/errs"
	"github.com/sgaunet/s3-nocheck-resource/pkg/resource"
	"github.com/sgaunet/s3-nocheck-resource/pkg/storage"
)

func testResource(store storage.ObjectStore) *resource.Resource {
	res := resource.New()
	res.SetConnectorFactory(func(config.Source, *slog.Logger) storage.Connector {
		return storage.ConnectorFunc(func(context.Context, string) (storage.ObjectStore, error) {
			return store, nil
		})
	})
	res.SetIdentityProvider(buildinfo.Static{ID: "42", TeamName: "main"})
	return res
}

func run(t *testing.T, store storage.ObjectStore, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp(testResource(store), strings.NewReader(stdin), &stdout, &stderr)
	err := app.Run(commandArgs(args))
	return stdout.String(), err
}

func TestCommandArgs(t *testing.T) {
	assert.Equal(t, []string{"/opt/resource/in", "in", "/tmp/dest"}, commandArgs([]string{"/opt/resource/in", "/tmp/dest"}))
	assert.Equal(t, []string{"/opt/resource/check", "check"}, commandArgs([]string{"/opt/resource/check"}))
	assert.Equal(t, []string{"s3resource", "out", "src"}, commandArgs([]string{"s3resource", "out", "src"}))
	assert.Empty(t, commandArgs(nil))
}

func TestCheckCommand(t *testing.T) {
	out, err := run(t, testutil.NewMemStore(nil), `{"source": {"bucket": "b"}, "version": {"path": "p/1"}}`, "/opt/resource/check")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"path": "p/1"}]`, out)

	out, err = run(t, testutil.NewMemStore(nil), `{"source": {"bucket": "b"}}`, "s3resource", "check")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestInCommand(t *testing.T) {
	store := testutil.NewMemStore(map[string]string{"bucket/test/file.txt": "hello"})
	dest := t.TempDir()

	out, err := run(t, store, `{"source": {"bucket": "bucket"}, "version": {"path": "test/file.txt"}}`, "/opt/resource/in", dest)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version": {"path": "test/file.txt"}, "metadata": [{"name": "path", "value": "test/file.txt"}]}`, out)

	data, err := os.ReadFile(filepath.Join(dest, "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestOutCommand(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("a"), 0o644))
	store := testutil.NewMemStore(nil)

	out, err := run(t, store, `{"source": {"bucket": "bucket"}, "params": {"glob": "*.txt", "s3_prefix": "builds/{BUILD_ID}"}}`, "s3resource", "out", src)
	require.NoError(t, err)

	var resp resource.OutResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "builds/42", resp.Version.Path)
	_, ok := store.Object("bucket", "builds/42/a.txt")
	assert.True(t, ok)
}

func TestOutCommand_RequestFile(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.log"), []byte("a"), 0o644))
	reqFile := filepath.Join(t.TempDir(), "request.yaml")
	require.NoError(t, os.WriteFile(reqFile, []byte("source:\n  bucket: bucket\nparams:\n  glob: '*.log'\n  s3_prefix: logs\n"), 0o644))
	store := testutil.NewMemStore(nil)

	out, err := run(t, store, "", "s3resource", "--request-file", reqFile, "out", src)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version": {"path": "logs"}, "metadata": []}`, out)
	_, ok := store.Object("bucket", "logs/a.log")
	assert.True(t, ok)
}

func TestOutCommand_ConfigurationError(t *testing.T) {
	out, err := run(t, testutil.NewMemStore(nil), `{"source": {}, "params": {"glob": "*", "s3_prefix": "p"}}`, "s3resource", "out", t.TempDir())
	require.Error(t, err)
	assert.True(t, errs.IsFatal(err))
	assert.Empty(t, out)
}

func TestMissingDirectory(t *testing.T) {
	_, err := run(t, testutil.NewMemStore(nil), `{}`, "s3resource", "in")
	require.Error(t, err)
	assert.True(t, errs.IsFatal(err))
}

func TestInvalidRequest(t *testing.T) {
	_, err := run(t, testutil.NewMemStore(nil), `not json`, "s3resource", "check")
	require.Error(t, err)
	assert.True(t, errs.IsFatal(err))
}

func TestInitTrace(t *testing.T) {
	var buf bytes.Buffer
	l := initTrace("warn", &buf)
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestInCommand_ListFailure(t *testing.T) {
	store := testutil.NewMemStore(nil)
	store.ListErr = errors.New("NoSuchBucket")

	out, err := run(t, store, `{"source": {"bucket": "bucket"}, "version": {"path": "p"}}`, "/opt/resource/in", t.TempDir())
	require.Error(t, err)
	assert.ErrorContains(t, err, "NoSuchBucket")
	assert.Empty(t, out)
}
