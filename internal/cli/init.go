package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/shelld/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .shelld.yaml configuration",
	Long: `Write a starter .shelld.yaml in the current directory.

The generated file carries the defaults plus a commented-out example of
each section, ready to edit.

Examples:
  shelld init`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand()
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func initCommand() error {
	cfg := config.DefaultConfig()
	cfg.Auth.Users = []config.UserConfig{
		{Name: "admin", Password: "change-me", Roles: []string{"admin"}},
	}

	if err := config.Save(cfg, config.ConfigFileName); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", config.ConfigFileName)
	fmt.Println("edit the users section, then start the server with 'shelld serve'")
	return nil
}
