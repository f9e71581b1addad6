package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh"

	"github.com/rileyhilliard/shelld/internal/config"
	"github.com/rileyhilliard/shelld/internal/logger"
	"github.com/rileyhilliard/shelld/internal/sshd"
)

var keygenOutputFlag string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate the server host key",
	Long: `Generate the server's host key ahead of time.

'shelld serve' generates a key on first start anyway; this command exists
for provisioning, so the key can be created and distributed before the
server ever runs.

Examples:
  shelld keygen
  shelld keygen --output /etc/shelld/host_key`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return keygenCommand()
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().StringVarP(&keygenOutputFlag, "output", "o", "", "host key path (default: from config)")
}

func keygenCommand() error {
	path := keygenOutputFlag
	if path == "" {
		cfg, err := config.LoadOrDefault(configFlag)
		if err != nil {
			return err
		}
		path = cfg.Listen.HostKeyFile
	}

	signer, err := sshd.LoadOrGenerateHostKey(path, logger.NewEnvLogger("[keygen]"))
	if err != nil {
		return err
	}

	fmt.Printf("host key: %s\n", path)
	fmt.Printf("fingerprint: %s\n", ssh.FingerprintSHA256(signer.PublicKey()))
	return nil
}
