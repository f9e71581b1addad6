// Package testing provides a mock SSH client for testing CLI commands
// without a live server.
package testing

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rileyhilliard/shelld/pkg/sshclient"
)

// CommandResponse defines a canned response for a specific command.
type CommandResponse struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Error    error
}

// MockClient simulates an SSH connection, returning canned responses and
// recording the commands it was asked to run.
type MockClient struct {
	mu       sync.Mutex
	host     string
	address  string
	closed   bool
	commands map[string]CommandResponse
	executed []string
}

var _ sshclient.SSHClient = (*MockClient)(nil)

// NewMockClient creates a mock client with no canned responses.
func NewMockClient(host string) *MockClient {
	return &MockClient{
		host:     host,
		address:  host + ":22",
		commands: make(map[string]CommandResponse),
	}
}

// Respond registers a canned response for an exact command string.
func (m *MockClient) Respond(cmd string, resp CommandResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands[cmd] = resp
}

// Executed returns the commands run so far, in order.
func (m *MockClient) Executed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.executed))
	copy(out, m.executed)
	return out
}

// Exec returns the canned response for cmd. Unregistered commands fail with
// exit code 127, like an unknown command on a real shell.
func (m *MockClient) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, nil, -1, errors.New("connection closed")
	}
	m.executed = append(m.executed, cmd)

	if resp, ok := m.commands[cmd]; ok {
		return resp.Stdout, resp.Stderr, resp.ExitCode, resp.Error
	}
	return nil, []byte(fmt.Sprintf("unknown command %q\n", cmd)), 127, nil
}

// ExecStream runs the command and writes its canned output to the writers.
func (m *MockClient) ExecStream(cmd string, stdout, stderr io.Writer) (exitCode int, err error) {
	outBytes, errBytes, code, err := m.Exec(cmd)
	if err != nil {
		return -1, err
	}
	if len(outBytes) > 0 {
		_, _ = stdout.Write(outBytes)
	}
	if len(errBytes) > 0 {
		_, _ = stderr.Write(errBytes)
	}
	return code, nil
}

// Close marks the connection closed; further Execs fail.
func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// GetHost returns the host the mock was created with.
func (m *MockClient) GetHost() string { return m.host }

// GetAddress returns the mock's host:22 address.
func (m *MockClient) GetAddress() string { return m.address }
