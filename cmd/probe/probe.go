// Package probe implements the "probe" CLI subcommand tree: list/blacklist/
// whitelist, operating on the same bbolt-persisted state the running
// daemon restores its blacklist from at startup. These subcommands do not
// talk to a live daemon process; they edit persisted state directly, the
// way fan2go's "fan" subcommands read config directly rather than going
// through an IPC channel.
package probe

import (
	"github.com/spf13/cobra"

	"github.com/yuri-rage/pit-ninja/internal/configuration"
	"github.com/yuri-rage/pit-ninja/internal/persistence"
	"github.com/yuri-rage/pit-ninja/internal/ui"
)

var Command = &cobra.Command{
	Use:              "probe",
	Short:            "Probe registry commands",
	Long:             ``,
	TraverseChildren: true,
}

// openPersistence loads the config file (for dbPath) and opens the
// persisted store every subcommand reads/writes.
func openPersistence() (persistence.Persistence, error) {
	configPath := configuration.DetectAndReadConfigFile()
	ui.Info("Using configuration file at: %s", configPath)
	configuration.LoadConfig()

	pers := persistence.New(configuration.CurrentConfig.DbPath)
	if err := pers.Init(); err != nil {
		return nil, err
	}
	return pers, nil
}
