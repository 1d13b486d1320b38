package pid_test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"codeberg.org/mutker/powermon/internal/errors"
	"codeberg.org/mutker/powermon/internal/pid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "powermon.pid")

	require.NoError(t, pid.Write(path))
	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(contents))

	require.NoError(t, pid.Remove(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, pid.Remove(path), "removing a missing file")
}

func TestWriteRejectsRunningInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "powermon.pid")
	// The parent of the test binary is alive for the duration of the test.
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getppid())), 0o600))

	err := pid.Write(path)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrAlreadyRunning))
}

func TestWriteReplacesStaleFile(t *testing.T) {
	tests := map[string]string{
		"garbage":  "not-a-pid",
		"empty":    "",
		"own pid":  strconv.Itoa(os.Getpid()),
		"negative": "-4",
	}
	for name, contents := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "powermon.pid")
			require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

			require.NoError(t, pid.Write(path))
			written, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, strconv.Itoa(os.Getpid()), string(written))
		})
	}
}

func TestWriteRequiresPath(t *testing.T) {
	err := pid.Write("")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))
}

func TestWriteFailsInMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "powermon.pid")
	err := pid.Write(path)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInternal))
}
