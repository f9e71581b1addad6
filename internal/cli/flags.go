package cli

import "github.com/spf13/cobra"

// Connection flags shared by the commands that dial a server.
var (
	connUserFlag     string
	connPasswordFlag string
	connInsecureFlag bool
)

// addConnectionFlags registers --user, --password, and --insecure on a
// command that connects to a running server.
func addConnectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&connUserFlag, "user", "u", "", "user to connect as (overrides ~/.ssh/config)")
	cmd.Flags().StringVarP(&connPasswordFlag, "password", "p", "", "password to authenticate with")
	cmd.Flags().BoolVar(&connInsecureFlag, "insecure", false, "skip host key verification")
}
