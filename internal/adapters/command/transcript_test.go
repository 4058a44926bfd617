package command

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/felixgeelhaar/archstrap/internal/adapters/logging"
	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readRecords(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()

	var records []map[string]interface{}
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var rec map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	return records
}

func TestTranscriptRunner_RecordsEveryInvocation(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logging.NewConsoleLogger(logging.WithOutput(&buf), logging.WithJSONFormat(true))

	inner := mocks.NewCommandRunner()
	inner.AddResult("chezmoi", []string{"init", "--apply", "https://example.com/dots.git"}, ports.CommandResult{ExitCode: 1})
	inner.AddResult("pacman", []string{"-Syu", "--noconfirm"}, ports.CommandResult{})
	inner.AddError("reflector", []string{"--save", "/etc/pacman.d/mirrorlist"}, errors.New("exec: not found"))

	runner := NewTranscriptRunner(inner, log, "run-1", false)
	ctx := context.Background()

	_, err := runner.Run(ctx, "pacman", "-Syu", "--noconfirm")
	require.NoError(t, err)

	result, err := runner.Exec(ctx, ports.NewInvocation("chezmoi", "init", "--apply", "https://example.com/dots.git").AsUser("alice"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)

	_, err = runner.Run(ctx, "reflector", "--save", "/etc/pacman.d/mirrorlist")
	require.Error(t, err)

	records := readRecords(t, &buf)
	require.Len(t, records, 3)

	assert.Equal(t, "run-1", records[0]["run_id"])
	assert.Equal(t, "pacman -Syu --noconfirm", records[0]["command"])
	assert.Equal(t, "INFO", records[0]["level"])
	assert.Equal(t, false, records[0]["dry_run"])
	assert.Contains(t, records[0], "duration")

	assert.Equal(t, "alice", records[1]["user"])
	assert.Equal(t, "WARN", records[1]["level"])
	assert.InDelta(t, 1, records[1]["exit_code"], 0)

	assert.Equal(t, "ERROR", records[2]["level"])
	assert.Equal(t, "exec: not found", records[2]["error"])
}
