package probe

import (
	"github.com/spf13/cobra"

	"github.com/yuri-rage/pit-ninja/internal/ui"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List probes currently excluded from discovery",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pers, err := openPersistence()
		if err != nil {
			return err
		}

		macs, err := pers.LoadBlacklist()
		if err != nil {
			return err
		}

		if len(macs) == 0 {
			ui.Info("No probes are blacklisted.")
			return nil
		}
		for _, mac := range macs {
			ui.Printf("%s\n", mac)
		}
		return nil
	},
}

func init() {
	Command.AddCommand(listCmd)
}
