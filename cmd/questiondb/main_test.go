package main

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/maloquacious/questiondb/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDBCreateAndAddQuestion(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "--store", dir, "db", "create")
	require.NoError(t, err)

	out, err := run(t, "--store", dir, "question", "add", "Where in the world is Carmen Sandiego?")
	require.NoError(t, err)
	assert.Equal(t, "1", strings.TrimSpace(out))

	out, err = run(t, "--store", dir, "question", "add", "What is 2+2?")
	require.NoError(t, err)
	assert.Equal(t, "2", strings.TrimSpace(out))
}

func TestDBCreateTwiceFails(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "--store", dir, "db", "create")
	require.NoError(t, err)

	_, err = run(t, "--store", dir, "db", "create")
	assert.ErrorIs(t, err, store.ErrTableExists)
}

func TestDBVerify(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "--store", dir, "db", "verify")
	require.Error(t, err)
	var report verifyReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "missing", report.State)

	_, err = run(t, "--store", dir, "db", "create")
	require.NoError(t, err)

	out, err = run(t, "--store", dir, "db", "verify")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "ready", report.State)
	assert.Equal(t, schemaVersion, report.SchemaVersion)
	assert.Contains(t, report.QuestionsDDL, "id INTEGER PRIMARY KEY")
	assert.Contains(t, report.QuestionsDDL, "content TEXT")
}

func TestQuestionAddWithoutStore(t *testing.T) {
	_, err := run(t, "--store", t.TempDir(), "question", "add", "orphan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db create")
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := run(t, "--log-level", "loud", "version")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version.String(), strings.TrimSpace(out))
}
