package sshd

import (
	stderrors "errors"
	"io"
	"net"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/ssh"

	"github.com/rileyhilliard/shelld/internal/session"
)

// Wire payloads for the session channel requests we honor (RFC 4254 §6).
type ptyRequest struct {
	Term     string
	Columns  uint32
	Rows     uint32
	WidthPx  uint32
	HeightPx uint32
	Modes    string
}

type windowChangeRequest struct {
	Columns  uint32
	Rows     uint32
	WidthPx  uint32
	HeightPx uint32
}

type envRequest struct {
	Name  string
	Value string
}

type execRequest struct {
	Command string
}

type exitStatusMsg struct {
	Status uint32
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	sshConn, chans, reqs, err := ssh.NewServerConn(conn, s.sshCfg)
	if err != nil {
		s.log.Debug("handshake with %s failed: %v", conn.RemoteAddr(), err)
		return
	}
	defer func() { _ = sshConn.Close() }()

	identity := identityFrom(sshConn.Permissions)
	s.log.Debug("connection from %s authenticated as %q", conn.RemoteAddr(), identity.Username)

	go ssh.DiscardRequests(reqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			_ = newChannel.Reject(ssh.UnknownChannelType, "only session channels are supported")
			continue
		}
		channel, requests, err := newChannel.Accept()
		if err != nil {
			s.log.Warn("accepting session channel: %v", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleSession(identity, channel, requests)
		}()
	}
}

// handleSession services one session channel: it gathers the facts the
// client declares (pty-req, env) until a shell or exec request arrives, then
// hands the channel streams to a runner. The channel stays serviced for
// window-change while the session runs.
func (s *Server) handleSession(identity session.Identity, channel ssh.Channel, requests <-chan *ssh.Request) {
	defer func() { _ = channel.Close() }()

	sessionID := uuid.NewString()
	var (
		pty    *ptyRequest
		vars   = make(map[string]string)
		runner *session.Runner
		done   chan struct{}
	)

	for {
		select {
		case <-doneOrNil(done):
			return
		case req, ok := <-requests:
			if !ok {
				if runner != nil {
					// Remote tore the channel down mid-session; the
					// runner notices through its failed read.
					<-done
				}
				return
			}

			switch req.Type {
			case "pty-req":
				p := &ptyRequest{}
				if err := ssh.Unmarshal(req.Payload, p); err != nil {
					s.log.Debug("session %s: bad pty-req payload: %v", sessionID, err)
					replyIfWanted(req, false)
					continue
				}
				pty = p
				replyIfWanted(req, true)

			case "env":
				e := &envRequest{}
				if err := ssh.Unmarshal(req.Payload, e); err != nil {
					replyIfWanted(req, false)
					continue
				}
				vars[e.Name] = e.Value
				replyIfWanted(req, true)

			case "window-change":
				w := &windowChangeRequest{}
				if err := ssh.Unmarshal(req.Payload, w); err != nil {
					replyIfWanted(req, false)
					continue
				}
				if runner != nil {
					runner.Resize(int(w.Columns), int(w.Rows))
				} else if pty != nil {
					pty.Columns, pty.Rows = w.Columns, w.Rows
				}
				replyIfWanted(req, true)

			case "shell":
				if runner != nil {
					replyIfWanted(req, false)
					continue
				}
				replyIfWanted(req, true)
				runner = s.newRunner(sessionID, identity, pty, vars, channel)
				done = make(chan struct{})
				go func() {
					defer close(done)
					if err := runner.Run(channel, channel); err != nil {
						s.log.Warn("session %s: %v", sessionID, err)
						s.sendExitStatus(channel, 1)
						return
					}
					s.sendExitStatus(channel, 0)
				}()

			case "exec":
				if runner != nil {
					replyIfWanted(req, false)
					continue
				}
				e := &execRequest{}
				if err := ssh.Unmarshal(req.Payload, e); err != nil {
					replyIfWanted(req, false)
					continue
				}
				replyIfWanted(req, true)
				s.runExec(sessionID, identity, pty, vars, channel, e.Command)
				return

			default:
				replyIfWanted(req, false)
			}
		}
	}
}

func doneOrNil(done chan struct{}) <-chan struct{} {
	if done == nil {
		return nil
	}
	return done
}

func replyIfWanted(req *ssh.Request, ok bool) {
	if req.WantReply {
		_ = req.Reply(ok, nil)
	}
}

func (s *Server) newRunner(sessionID string, identity session.Identity, pty *ptyRequest, vars map[string]string, channel ssh.Channel) *session.Runner {
	env := environmentFor(identity, pty, vars)
	return session.NewRunner(session.RunnerOptions{
		SessionID:   sessionID,
		Environment: env,
		Negotiator:  s.negotiator,
		Registry:    s.opts.Registry,
		Dispatcher:  s.opts.Dispatcher,
		NewReader:   s.opts.NewReader,
		// Closing the channel fails the blocked read so a killed session
		// unwinds instead of waiting for the next keystroke.
		Interrupt: func() { _ = channel.Close() },
		Logger:    s.log,
	})
}

func environmentFor(identity session.Identity, pty *ptyRequest, vars map[string]string) *session.Environment {
	termType := ""
	width, height := 0, 0
	if pty != nil {
		termType = pty.Term
		width, height = int(pty.Columns), int(pty.Rows)
	}
	if termType == "" {
		termType = vars["TERM"]
	}
	return session.NewEnvironment(identity, termType, width, height, vars)
}

// runExec executes a single command line non-interactively and reports its
// result through the exit status, mirroring `ssh host command` semantics.
func (s *Server) runExec(sessionID string, identity session.Identity, pty *ptyRequest, vars map[string]string, channel ssh.Channel, command string) {
	env := environmentFor(identity, pty, vars)
	h, err := s.negotiator.Negotiate(channel, channel, env.TerminalRequest())
	if err != nil {
		s.log.Warn("exec %s: %v", sessionID, err)
		s.sendExitStatus(channel, 1)
		return
	}
	defer func() { _ = h.Close() }()

	reader := s.opts.NewReader(h)
	ctx := session.NewContext(sessionID, identity, h, reader)

	command = strings.TrimSpace(command)
	output, dispatchErr := s.opts.Dispatcher.Dispatch(ctx, command)
	if dispatchErr != nil && !stderrors.Is(dispatchErr, session.ErrShellExit) {
		writeLine(reader, dispatchErr.Error())
		s.sendExitStatus(channel, 1)
		return
	}
	if output != "" {
		writeLine(reader, output)
	}
	s.sendExitStatus(channel, 0)
}

func writeLine(w io.Writer, line string) {
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	_, _ = w.Write([]byte(line))
}

func (s *Server) sendExitStatus(channel ssh.Channel, status uint32) {
	_, err := channel.SendRequest("exit-status", false, ssh.Marshal(exitStatusMsg{Status: status}))
	if err != nil {
		s.log.Debug("sending exit status: %v", err)
	}
}
