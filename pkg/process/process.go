// Package process drives external simulation engine binaries. A Process owns
// a working directory, an ordered argument dictionary and the captured
// stdout/stderr of one engine invocation; engines layer their input
// generation and log parsing on top of it.
package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/simgate/simgate/pkg/log"
)

var (
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("process already started")
	// ErrNotStarted is returned when the process has not been started yet.
	ErrNotStarted = errors.New("process not started")
)

// Config describes one engine invocation.
type Config struct {
	// Name prefixes the files the process writes into its working
	// directory (<name>.out, <name>.err, input files).
	Name string
	// Exe is the engine binary to run, resolved against PATH when not
	// absolute.
	Exe string
	// WorkDir is the directory the process runs in. Empty means a fresh
	// temporary directory.
	WorkDir string
	// Logger defaults to a module logger when nil.
	Logger *slog.Logger
}

// Process is one external engine invocation. It is not safe for concurrent
// mutation; Wait and Running may be called from other goroutines once Start
// has returned.
type Process struct {
	name    string
	exe     string
	workDir string
	args    *Args
	logger  *slog.Logger

	cmd     *exec.Cmd
	stdout  *os.File
	stderr  *os.File
	started time.Time

	done     chan struct{}
	waitOnce sync.Once
	waitErr  error
	finished time.Time
}

// New prepares a process in its working directory, creating the directory
// when needed.
func New(config Config) (*Process, error) {
	if config.Name == "" {
		return nil, errors.New("process name must not be empty")
	}

	if config.Exe == "" {
		return nil, errors.New("process executable must not be empty")
	}

	workDir := config.WorkDir
	if workDir == "" {
		dir, err := os.MkdirTemp("", config.Name+"-")
		if err != nil {
			return nil, fmt.Errorf("failed to create working directory: %w", err)
		}

		workDir = dir
	} else if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = log.WithModule("process")
	}

	return &Process{
		name:    config.Name,
		exe:     config.Exe,
		workDir: workDir,
		args:    NewArgs(),
		logger:  logger.With("process", config.Name),
		done:    make(chan struct{}),
	}, nil
}

// Name returns the process name.
func (p *Process) Name() string {
	return p.name
}

// WorkDir returns the working directory the process runs in.
func (p *Process) WorkDir() string {
	return p.workDir
}

// Args returns the argument dictionary. Mutations before Start change the
// command line.
func (p *Process) Args() *Args {
	return p.args
}

// ArgString returns the full command line the process runs.
func (p *Process) ArgString() string {
	if p.args.Len() == 0 {
		return p.exe
	}

	return p.exe + " " + p.args.String()
}

// InputPath returns the path of filename inside the working directory.
func (p *Process) InputPath(filename string) string {
	return filepath.Join(p.workDir, filename)
}

// WriteInput writes one input file into the working directory.
func (p *Process) WriteInput(filename, content string) error {
	path := p.InputPath(filename)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write input file %s: %w", filename, err)
	}

	return nil
}

// StdoutPath returns the file capturing the engine's standard output.
func (p *Process) StdoutPath() string {
	return filepath.Join(p.workDir, p.name+".out")
}

// StderrPath returns the file capturing the engine's standard error.
func (p *Process) StderrPath() string {
	return filepath.Join(p.workDir, p.name+".err")
}

// Start launches the engine. The command line is recorded in README.txt
// inside the working directory and stdout/stderr are captured to files.
func (p *Process) Start(ctx context.Context) error {
	if p.cmd != nil {
		return ErrAlreadyStarted
	}

	record := fmt.Sprintf("# Command used to run this process:\n%s\n", p.ArgString())
	if err := p.WriteInput("README.txt", record); err != nil {
		return err
	}

	stdout, err := os.Create(p.StdoutPath())
	if err != nil {
		return fmt.Errorf("failed to create stdout capture: %w", err)
	}

	stderr, err := os.Create(p.StderrPath())
	if err != nil {
		stdout.Close()

		return fmt.Errorf("failed to create stderr capture: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.exe, p.args.Strings()...)
	cmd.Dir = p.workDir
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	p.logger.InfoContext(ctx, "Starting process",
		"exe", p.exe,
		"work_dir", p.workDir,
		"command", p.ArgString())

	if err := cmd.Start(); err != nil {
		stdout.Close()
		stderr.Close()

		return fmt.Errorf("failed to start %s: %w", p.exe, err)
	}

	p.cmd = cmd
	p.stdout = stdout
	p.stderr = stderr
	p.started = time.Now()

	go p.reap()

	return nil
}

// reap waits for the child and records its outcome exactly once.
func (p *Process) reap() {
	err := p.cmd.Wait()

	p.waitOnce.Do(func() {
		p.waitErr = err
		p.finished = time.Now()
		p.stdout.Close()
		p.stderr.Close()
		close(p.done)
	})
}

// Running reports whether the process has been started and has not exited.
func (p *Process) Running() bool {
	if p.cmd == nil {
		return false
	}

	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Wait blocks until the process exits and returns its failure, if any.
func (p *Process) Wait() error {
	if p.cmd == nil {
		return ErrNotStarted
	}

	<-p.done

	return p.waitErr
}

// Kill terminates a running process. Waiting callers observe the resulting
// exit error.
func (p *Process) Kill() error {
	if p.cmd == nil {
		return ErrNotStarted
	}

	if !p.Running() {
		return nil
	}

	if err := p.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("failed to kill process: %w", err)
	}

	return nil
}

// ExitCode returns the engine's exit code once it has finished.
func (p *Process) ExitCode() (int, bool) {
	if p.cmd == nil {
		return 0, false
	}

	select {
	case <-p.done:
	default:
		return 0, false
	}

	state := p.cmd.ProcessState
	if state == nil {
		return 0, false
	}

	return state.ExitCode(), true
}

// Runtime returns how long the process has been running, or its total
// runtime once finished.
func (p *Process) Runtime() time.Duration {
	if p.cmd == nil {
		return 0
	}

	select {
	case <-p.done:
		return p.finished.Sub(p.started)
	default:
		return time.Since(p.started)
	}
}
