package dbdump

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
)

// Command is one external client invocation
type Command struct {
	Name   string
	Args   []string
	Env    []string // Appended to the current environment
	Stdin  io.Reader
	Stdout io.Writer
}

// CommandRunner runs a Command and returns what it wrote to stderr
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, cmd Command) ([]byte, error) {
	var stderr bytes.Buffer

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Env = append(os.Environ(), cmd.Env...)
	c.Stdin = cmd.Stdin
	c.Stdout = cmd.Stdout
	c.Stderr = &stderr
	if c.Stdout == nil {
		// Client errors sometimes land on stdout, keep them with stderr
		c.Stdout = &stderr
	}

	err := c.Run()
	return stderr.Bytes(), err
}
