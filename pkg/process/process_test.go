package process

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:    "empty name",
			config:  Config{Exe: "sh"},
			wantErr: "name must not be empty",
		},
		{
			name:    "empty exe",
			config:  Config{Name: "test"},
			wantErr: "executable must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_CreatesTempWorkDir(t *testing.T) {
	proc, err := New(Config{Name: "test", Exe: "sh"})
	require.NoError(t, err)

	t.Cleanup(func() { os.RemoveAll(proc.WorkDir()) })

	info, err := os.Stat(proc.WorkDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNew_CreatesGivenWorkDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "work")

	proc, err := New(Config{Name: "test", Exe: "sh", WorkDir: dir})
	require.NoError(t, err)
	assert.Equal(t, dir, proc.WorkDir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestProcess_WriteInput(t *testing.T) {
	proc, err := New(Config{Name: "test", Exe: "sh", WorkDir: t.TempDir()})
	require.NoError(t, err)

	require.NoError(t, proc.WriteInput("test.cfg", "integrator = steep\n"))

	content, err := os.ReadFile(proc.InputPath("test.cfg"))
	require.NoError(t, err)
	assert.Equal(t, "integrator = steep\n", string(content))
}

func TestProcess_ArgString(t *testing.T) {
	proc, err := New(Config{Name: "test", Exe: "gmx", WorkDir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "gmx", proc.ArgString())

	proc.Args().Set("mdrun", true)
	proc.Args().Set("-v", true)
	proc.Args().Set("-deffnm", "gromacs")

	assert.Equal(t, "gmx mdrun -v -deffnm gromacs", proc.ArgString())
}

func TestProcess_RunToCompletion(t *testing.T) {
	proc, err := New(Config{Name: "test", Exe: "sh", WorkDir: t.TempDir()})
	require.NoError(t, err)

	proc.Args().Set("-c", "echo captured out; echo captured err >&2")

	require.NoError(t, proc.Start(context.Background()))
	require.NoError(t, proc.Wait())

	assert.False(t, proc.Running())

	code, ok := proc.ExitCode()
	require.True(t, ok)
	assert.Equal(t, 0, code)

	assert.Greater(t, proc.Runtime(), time.Duration(0))

	stdout, err := os.ReadFile(proc.StdoutPath())
	require.NoError(t, err)
	assert.Contains(t, string(stdout), "captured out")

	stderr, err := os.ReadFile(proc.StderrPath())
	require.NoError(t, err)
	assert.Contains(t, string(stderr), "captured err")
}

func TestProcess_RecordsCommandLine(t *testing.T) {
	proc, err := New(Config{Name: "test", Exe: "sh", WorkDir: t.TempDir()})
	require.NoError(t, err)

	proc.Args().Set("-c", "true")

	require.NoError(t, proc.Start(context.Background()))
	require.NoError(t, proc.Wait())

	record, err := os.ReadFile(proc.InputPath("README.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(record), "sh -c true")
}

func TestProcess_NonZeroExit(t *testing.T) {
	proc, err := New(Config{Name: "test", Exe: "sh", WorkDir: t.TempDir()})
	require.NoError(t, err)

	proc.Args().Set("-c", "exit 3")

	require.NoError(t, proc.Start(context.Background()))
	require.Error(t, proc.Wait())

	code, ok := proc.ExitCode()
	require.True(t, ok)
	assert.Equal(t, 3, code)
}

func TestProcess_StartTwice(t *testing.T) {
	proc, err := New(Config{Name: "test", Exe: "sh", WorkDir: t.TempDir()})
	require.NoError(t, err)

	proc.Args().Set("-c", "true")

	require.NoError(t, proc.Start(context.Background()))

	err = proc.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyStarted)

	require.NoError(t, proc.Wait())
}

func TestProcess_NotStarted(t *testing.T) {
	proc, err := New(Config{Name: "test", Exe: "sh", WorkDir: t.TempDir()})
	require.NoError(t, err)

	assert.False(t, proc.Running())
	assert.ErrorIs(t, proc.Wait(), ErrNotStarted)
	assert.ErrorIs(t, proc.Kill(), ErrNotStarted)

	_, ok := proc.ExitCode()
	assert.False(t, ok)

	assert.Equal(t, time.Duration(0), proc.Runtime())
}

func TestProcess_Kill(t *testing.T) {
	proc, err := New(Config{Name: "test", Exe: "sh", WorkDir: t.TempDir()})
	require.NoError(t, err)

	proc.Args().Set("-c", "sleep 30")

	require.NoError(t, proc.Start(context.Background()))
	assert.True(t, proc.Running())

	require.NoError(t, proc.Kill())
	require.Error(t, proc.Wait())

	assert.False(t, proc.Running())
}
