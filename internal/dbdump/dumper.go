// Package dbdump saves a database to a SQL file with the platform client and
// loads it back.
package dbdump

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/behat-helpers/internal/common"
)

var (
	// ErrUnsupportedPlatform is returned for databases other than MySQL
	ErrUnsupportedPlatform = errors.New("unsupported database platform")

	// ErrDumpExists is returned when the target dump file is already there
	ErrDumpExists = errors.New("dump file already exists")
)

// Dumper runs the dump and restore clients
type Dumper struct {
	config *common.DatabaseConfig
	runner CommandRunner
	logger arbor.ILogger
}

// NewDumper creates a Dumper; a nil runner uses ExecRunner
func NewDumper(config *common.DatabaseConfig, runner CommandRunner, logger arbor.ILogger) *Dumper {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Dumper{
		config: config,
		runner: runner,
		logger: logger,
	}
}

// Connection parses the configured DSN and checks the platform is supported
func (d *Dumper) Connection() (*Connection, error) {
	conn, err := ParseConnection(d.config.Driver, d.config.DSN)
	if err != nil {
		return nil, err
	}
	if conn.Platform != "mysql" {
		return nil, fmt.Errorf("Platform %s is not supported yet: %w", conn.Platform, ErrUnsupportedPlatform)
	}
	return conn, nil
}

// Dump writes the whole database to path, which must not exist yet
func (d *Dumper) Dump(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("File %s already exists: %w", path, ErrDumpExists)
	}

	conn, err := d.Connection()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create dump directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create dump file: %w", err)
	}

	output, runErr := d.runner.Run(ctx, Command{
		Name:   commandOrDefault(d.config.DumpCommand, "mysqldump"),
		Args:   clientArgs(conn),
		Env:    passwordEnv(conn),
		Stdout: file,
	})
	closeErr := file.Close()

	if runErr != nil {
		os.Remove(path)
		return fmt.Errorf("Error during database dump: %s", describeFailure(output, runErr))
	}
	if closeErr != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write dump file: %w", closeErr)
	}

	d.logger.Info().Str("path", path).Str("database", conn.DBName).Msg("Database has been saved")
	return nil
}

// Restore loads path into the database and removes the file
func (d *Dumper) Restore(ctx context.Context, path string) error {
	conn, err := d.Connection()
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("Error during database restore: %s", err)
	}

	output, runErr := d.runner.Run(ctx, Command{
		Name:  commandOrDefault(d.config.RestoreCommand, "mysql"),
		Args:  clientArgs(conn),
		Env:   passwordEnv(conn),
		Stdin: file,
	})
	file.Close()

	if runErr != nil {
		return fmt.Errorf("Error during database restore: %s", describeFailure(output, runErr))
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove dump file: %w", err)
	}

	d.logger.Info().Str("database", conn.DBName).Msg("Database has been restored")
	return nil
}

// clientArgs is shared by mysqldump and mysql. The password goes through MYSQL_PWD.
func clientArgs(conn *Connection) []string {
	var args []string
	if conn.Socket != "" {
		args = append(args, "--socket", conn.Socket)
	} else {
		if conn.Host != "" {
			args = append(args, "-h", conn.Host)
		}
		if conn.Port != "" {
			args = append(args, "-P", conn.Port)
		}
	}
	if conn.User != "" {
		args = append(args, "-u", conn.User)
	}
	return append(args, conn.DBName)
}

func passwordEnv(conn *Connection) []string {
	if conn.Password == "" {
		return nil
	}
	return []string{"MYSQL_PWD=" + conn.Password}
}

func commandOrDefault(command, fallback string) string {
	if command == "" {
		return fallback
	}
	return command
}

func describeFailure(output []byte, err error) string {
	if msg := strings.TrimSpace(string(output)); msg != "" {
		return msg
	}
	return err.Error()
}
