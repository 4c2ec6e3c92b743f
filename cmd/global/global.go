// Package global holds the flag values shared across the whole command
// tree, set by root.go's PersistentFlags and read by every subcommand.
package global

var (
	CfgFile string
	Verbose bool
	NoColor bool
)
