// Package sshd is the SSH transport: it accepts connections, authenticates
// them, and adapts session channels onto the session runner. The runner owns
// session lifecycle; this package owns everything up to and including the
// raw channel streams.
package sshd

import (
	"fmt"
	"net"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"

	"github.com/rileyhilliard/shelld/internal/auth"
	"github.com/rileyhilliard/shelld/internal/errors"
	"github.com/rileyhilliard/shelld/internal/logger"
	"github.com/rileyhilliard/shelld/internal/session"
	"github.com/rileyhilliard/shelld/internal/term"
)

// Extension keys carrying the authenticated identity from the handshake to
// the channel handler.
const (
	extUser  = "shelld-user"
	extRoles = "shelld-roles"
)

// Options configures a Server. HostKey, Registry, and Dispatcher are
// required, as is at least one authenticator.
type Options struct {
	// Addr is the listen address, e.g. ":2222".
	Addr string
	// HostKey is the server's host identity.
	HostKey ssh.Signer
	// Password enables password authentication when set.
	Password *auth.PasswordAuthenticator
	// PublicKey enables public key authentication when set.
	PublicKey *auth.PublicKeyAuthenticator
	// Terminal configures negotiation for every session.
	Terminal term.Config
	// Registry tracks live sessions.
	Registry *session.Registry
	// Dispatcher executes command lines for every session.
	Dispatcher session.Dispatcher
	// NewReader builds the line front-end for each session.
	NewReader session.ReaderFactory
	// Logger defaults to a no-op logger.
	Logger logger.Logger
}

// Server accepts SSH connections and hands each session channel to a
// session runner on its own goroutine.
type Server struct {
	opts       Options
	sshCfg     *ssh.ServerConfig
	negotiator *term.Negotiator
	log        logger.Logger

	mu       sync.Mutex
	listener net.Listener
	closed   bool

	wg sync.WaitGroup
}

// NewServer validates the options and prepares the SSH handshake
// configuration.
func NewServer(opts Options) (*Server, error) {
	if opts.HostKey == nil {
		return nil, errors.New(errors.ErrSSH, "no host key configured",
			"load or generate one with LoadOrGenerateHostKey")
	}
	if opts.Password == nil && opts.PublicKey == nil {
		return nil, errors.New(errors.ErrSSH, "no authenticator configured",
			"enable password or public key authentication")
	}
	if opts.Registry == nil || opts.Dispatcher == nil || opts.NewReader == nil {
		return nil, errors.New(errors.ErrSSH, "server wiring incomplete",
			"registry, dispatcher, and reader factory are all required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}

	s := &Server{
		opts:       opts,
		negotiator: term.NewNegotiator(opts.Terminal, log),
		log:        log,
	}

	cfg := &ssh.ServerConfig{}
	if opts.Password != nil {
		cfg.PasswordCallback = s.passwordCallback
	}
	if opts.PublicKey != nil {
		cfg.PublicKeyCallback = s.publicKeyCallback
	}
	cfg.AddHostKey(opts.HostKey)
	s.sshCfg = cfg
	return s, nil
}

func (s *Server) passwordCallback(meta ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
	identity, err := s.opts.Password.Authenticate(meta.User(), string(password))
	if err != nil {
		return nil, err
	}
	return permissionsFor(identity), nil
}

func (s *Server) publicKeyCallback(meta ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
	identity, err := s.opts.PublicKey.Authenticate(meta.User(), key)
	if err != nil {
		return nil, err
	}
	return permissionsFor(identity), nil
}

func permissionsFor(identity session.Identity) *ssh.Permissions {
	return &ssh.Permissions{
		Extensions: map[string]string{
			extUser:  identity.Username,
			extRoles: strings.Join(identity.Roles, ","),
		},
	}
}

func identityFrom(perms *ssh.Permissions) session.Identity {
	id := session.Identity{}
	if perms == nil {
		return id
	}
	id.Username = perms.Extensions[extUser]
	if roles := perms.Extensions[extRoles]; roles != "" {
		id.Roles = strings.Split(roles, ",")
	}
	return id
}

// Listen binds the configured address. After Listen returns, Addr reports
// the bound address, which matters when the configuration asked for port 0.
func (s *Server) Listen() error {
	l, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("listening on %s", s.opts.Addr),
			"check the address is valid and the port is free")
	}
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
	s.log.Info("listening on %s", l.Addr())
	return nil
}

// Addr returns the bound listen address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until Shutdown. Each connection gets its own
// goroutine; each session channel within it gets another.
func (s *Server) Serve() error {
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()
	if l == nil {
		return errors.New(errors.ErrSSH, "server is not listening", "call Listen first")
	}

	for {
		conn, err := l.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			s.log.Warn("accept failed: %v", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// ListenAndServe binds and serves in one call.
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Shutdown stops accepting connections and waits for in-flight connection
// handlers to finish. Live sessions end when their connections do; callers
// wanting a forced end kill them through the registry first.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	s.closed = true
	l := s.listener
	s.mu.Unlock()

	var err error
	if l != nil {
		err = l.Close()
	}
	s.wg.Wait()
	return err
}
