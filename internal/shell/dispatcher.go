package shell

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/rileyhilliard/shelld/internal/logger"
	"github.com/rileyhilliard/shelld/internal/session"
)

// Command is one entry in the catalogue.
type Command struct {
	Name    string
	Summary string
	Usage   string
	// Run executes the command with the session context, so it can reach
	// the session's terminal and identity. Returned text is written to the
	// terminal; a returned error becomes user-visible output without
	// ending the session.
	Run func(ctx *session.Context, args []string) (string, error)
}

// Dispatcher routes command lines to registered commands. It implements
// session.Dispatcher.
type Dispatcher struct {
	mu       sync.RWMutex
	commands map[string]*Command
	sink     io.Writer
	log      logger.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Noop()
	}
	return &Dispatcher{
		commands: make(map[string]*Command),
		log:      log,
	}
}

// Register adds a command to the catalogue.
func (d *Dispatcher) Register(cmd *Command) error {
	if cmd == nil || cmd.Name == "" || cmd.Run == nil {
		return fmt.Errorf("command must have a name and a run function")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.commands[cmd.Name]; exists {
		return fmt.Errorf("command %q already registered", cmd.Name)
	}
	d.commands[cmd.Name] = cmd
	return nil
}

// SetSink attaches an output sink that receives a copy of every successful
// command's output. This is the attachment point for output post-processing;
// nothing more is done with it here.
func (d *Dispatcher) SetSink(w io.Writer) {
	d.mu.Lock()
	d.sink = w
	d.mu.Unlock()
}

// Commands returns the catalogue sorted by name.
func (d *Dispatcher) Commands() []*Command {
	d.mu.RLock()
	cmds := make([]*Command, 0, len(d.commands))
	for _, c := range d.commands {
		cmds = append(cmds, c)
	}
	d.mu.RUnlock()
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// Dispatch parses a line and runs the named command.
func (d *Dispatcher) Dispatch(ctx *session.Context, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	name, args := fields[0], fields[1:]

	d.mu.RLock()
	cmd, ok := d.commands[name]
	sink := d.sink
	d.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("unknown command %q (type 'help' for the command list)", name)
	}

	d.log.Debug("session %s: dispatch %s", ctx.SessionID(), name)
	out, err := cmd.Run(ctx, args)
	if err != nil {
		return "", err
	}
	if sink != nil && out != "" {
		_, _ = sink.Write([]byte(out))
	}
	return out, nil
}
