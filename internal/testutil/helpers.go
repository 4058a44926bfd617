// Package testutil provides test helpers shared by archstrap's package tests.
package testutil

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteTempFile writes content to a file in the specified directory.
func WriteTempFile(t *testing.T, dir, filename, content string) string {
	t.Helper()

	path := filepath.Join(dir, filename)
	err := os.WriteFile(path, []byte(content), 0o644)
	require.NoError(t, err, "failed to write temp file: %s", filename)

	return path
}

// ParseJSONLines decodes one JSON object per non-empty line.
func ParseJSONLines(t testing.TB, data []byte) []map[string]interface{} {
	t.Helper()

	var records []map[string]interface{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &rec), "invalid JSON line: %s", line)
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	return records
}

// ReadTranscript reads a JSON-lines transcript file.
func ReadTranscript(t testing.TB, path string) []map[string]interface{} {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read transcript: %s", path)
	return ParseJSONLines(t, data)
}

// Messages returns the "msg" field of each record.
func Messages(records []map[string]interface{}) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		msg, _ := r["msg"].(string)
		out = append(out, msg)
	}
	return out
}
