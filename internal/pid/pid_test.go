package pid_test

import (
	"os"
	"strconv"
	"testing"

	"codeberg.org/mutker/daikinctl/internal/errors"
	"codeberg.org/mutker/daikinctl/internal/pid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndRemove(t *testing.T) {
	f := pid.New(t.TempDir())

	require.NoError(t, f.Write())
	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	require.NoError(t, f.Remove())
	_, err = os.Stat(f.Path())
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, f.Remove())
}

func TestWriteWhileRunning(t *testing.T) {
	f := pid.New(t.TempDir())
	require.NoError(t, os.WriteFile(f.Path(), []byte(strconv.Itoa(os.Getpid())), 0o600))

	err := f.Write()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrAlreadyRunning))
}

func TestWriteReplacesStaleFile(t *testing.T) {
	f := pid.New(t.TempDir())
	require.NoError(t, os.WriteFile(f.Path(), []byte("not a pid\n"), 0o600))

	require.NoError(t, f.Write())
	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))
}
