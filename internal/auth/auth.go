// Package auth authenticates incoming SSH connections and produces the
// identity a session runs under. Two authenticators are provided: password
// (fixed per-user passwords, with a generated fallback so a bare config is
// still reachable) and public key (authorized_keys file).
package auth

import (
	"crypto/subtle"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/ssh"

	"github.com/rileyhilliard/shelld/internal/errors"
	"github.com/rileyhilliard/shelld/internal/logger"
	"github.com/rileyhilliard/shelld/internal/session"
)

// DefaultUser is the account used when no users are configured.
const DefaultUser = "user"

// User is one password-authenticated account.
type User struct {
	Name     string
	Password string
	Roles    []string
}

// PasswordAuthenticator validates username/password pairs against a fixed
// set of accounts. When constructed with no accounts it creates the default
// user with a generated password and logs it, so a server started without
// auth configuration is still reachable instead of silently locked.
type PasswordAuthenticator struct {
	mu    sync.RWMutex
	users map[string]User
	log   logger.Logger
}

// NewPasswordAuthenticator builds an authenticator from the configured
// accounts.
func NewPasswordAuthenticator(users []User, log logger.Logger) *PasswordAuthenticator {
	if log == nil {
		log = logger.Noop()
	}
	a := &PasswordAuthenticator{
		users: make(map[string]User, len(users)),
		log:   log,
	}
	for _, u := range users {
		if u.Name == "" {
			continue
		}
		a.users[u.Name] = u
	}
	if len(a.users) == 0 {
		generated := uuid.NewString()
		a.users[DefaultUser] = User{Name: DefaultUser, Password: generated}
		a.log.Info("no users configured, generated password for user %q: %s", DefaultUser, generated)
	}
	return a
}

// Authenticate checks the pair and returns the account's identity. The
// comparison is constant time.
func (a *PasswordAuthenticator) Authenticate(username, password string) (session.Identity, error) {
	a.mu.RLock()
	u, ok := a.users[username]
	a.mu.RUnlock()

	if !ok || subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) != 1 {
		a.log.Debug("password authentication failed for user %q", username)
		return session.Identity{}, errors.New(errors.ErrAuth,
			fmt.Sprintf("authentication failed for user %q", username),
			"check the username and password against the server's configured users")
	}
	return session.Identity{Username: username, Roles: append([]string(nil), u.Roles...)}, nil
}

// PublicKeyAuthenticator validates keys against an authorized_keys file
// loaded once at startup. Every listed key maps to the connecting username;
// roles come from key options of the form role=<name>.
type PublicKeyAuthenticator struct {
	keys map[string][]string
	log  logger.Logger
}

// NewPublicKeyAuthenticator parses the authorized_keys file at path.
func NewPublicKeyAuthenticator(path string, log logger.Logger) (*PublicKeyAuthenticator, error) {
	if log == nil {
		log = logger.Noop()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrAuth,
			fmt.Sprintf("reading authorized keys file %s", path),
			"check the file exists and is readable by the server")
	}

	keys := make(map[string][]string)
	rest := data
	for len(rest) > 0 {
		var (
			pub     ssh.PublicKey
			options []string
		)
		pub, _, options, rest, err = ssh.ParseAuthorizedKey(rest)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrAuth,
				fmt.Sprintf("parsing authorized keys file %s", path),
				"the file must be in OpenSSH authorized_keys format")
		}
		keys[string(pub.Marshal())] = rolesFromOptions(options)
	}
	if len(keys) == 0 {
		return nil, errors.New(errors.ErrAuth,
			fmt.Sprintf("authorized keys file %s contains no keys", path),
			"add at least one public key or disable public key authentication")
	}
	log.Debug("loaded %d authorized keys from %s", len(keys), path)
	return &PublicKeyAuthenticator{keys: keys, log: log}, nil
}

func rolesFromOptions(options []string) []string {
	var roles []string
	for _, opt := range options {
		if role, ok := strings.CutPrefix(opt, "role="); ok && role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}

// Authenticate checks the presented key against the loaded set.
func (a *PublicKeyAuthenticator) Authenticate(username string, key ssh.PublicKey) (session.Identity, error) {
	roles, ok := a.keys[string(key.Marshal())]
	if !ok {
		a.log.Debug("public key authentication failed for user %q (%s key not in authorized set)",
			username, key.Type())
		return session.Identity{}, errors.New(errors.ErrAuth,
			fmt.Sprintf("public key not authorized for user %q", username),
			"add the client's public key to the server's authorized keys file")
	}
	a.log.Debug("public key authentication succeeded for user %q", username)
	return session.Identity{Username: username, Roles: append([]string(nil), roles...)}, nil
}
