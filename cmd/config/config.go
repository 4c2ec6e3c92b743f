// Package config implements the "config" CLI subcommand tree.
package config

import "github.com/spf13/cobra"

var Command = &cobra.Command{
	Use:              "config",
	Short:            "Configuration commands",
	Long:             ``,
	TraverseChildren: true,
}
