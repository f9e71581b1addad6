package sshd

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"

	"github.com/rileyhilliard/shelld/internal/errors"
	"github.com/rileyhilliard/shelld/internal/logger"
)

const hostKeyBits = 3072

// LoadOrGenerateHostKey returns the server's host key signer. An existing
// PEM file at path is reused so clients see a stable host identity across
// restarts; otherwise a new RSA key is generated and persisted with owner
// only permissions.
func LoadOrGenerateHostKey(path string, log logger.Logger) (ssh.Signer, error) {
	if log == nil {
		log = logger.Noop()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		signer, parseErr := ssh.ParsePrivateKey(data)
		if parseErr != nil {
			return nil, errors.WrapWithCode(parseErr, errors.ErrSSH,
				fmt.Sprintf("parsing host key %s", path),
				"the file must be an unencrypted PEM private key, delete it to generate a fresh one")
		}
		log.Debug("loaded host key from %s", path)
		return signer, nil
	case !os.IsNotExist(err):
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("reading host key %s", path),
			"check the file's permissions")
	}

	key, err := rsa.GenerateKey(rand.Reader, hostKeyBits)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH, "generating host key", "")
	}
	pemData := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrSSH,
				fmt.Sprintf("creating host key directory %s", dir), "")
		}
	}
	if err := os.WriteFile(path, pemData, 0o600); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("writing host key %s", path),
			"check the directory is writable by the server")
	}
	log.Info("generated new host key at %s", path)

	signer, err := ssh.ParsePrivateKey(pemData)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH, "parsing generated host key", "")
	}
	return signer, nil
}
