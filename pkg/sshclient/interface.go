package sshclient

import "io"

// SSHClient is the command-execution surface the CLI depends on. Both the
// real Client and the mock in testing/ satisfy it, so commands can be tested
// without a live server.
type SSHClient interface {
	// Exec runs a command and returns stdout, stderr, and exit code. Exit
	// code is -1 if the command couldn't be executed at all.
	Exec(cmd string) (stdout, stderr []byte, exitCode int, err error)

	// ExecStream runs a command and streams output to the provided writers.
	ExecStream(cmd string, stdout, stderr io.Writer) (exitCode int, err error)

	// Close closes the SSH connection.
	Close() error

	// GetHost returns the original host/alias used to connect.
	GetHost() string

	// GetAddress returns the resolved host:port address.
	GetAddress() string
}
