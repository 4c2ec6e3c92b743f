package probe

import (
	"github.com/spf13/cobra"

	"github.com/yuri-rage/pit-ninja/internal/ui"
)

var blacklistCmd = &cobra.Command{
	Use:   "blacklist <mac>",
	Short: "Exclude a probe MAC address from future discovery",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pers, err := openPersistence()
		if err != nil {
			return err
		}

		macs, err := pers.LoadBlacklist()
		if err != nil {
			return err
		}
		mac := args[0]
		for _, m := range macs {
			if m == mac {
				ui.Info("%s is already blacklisted.", mac)
				return nil
			}
		}
		macs = append(macs, mac)
		if err := pers.SaveBlacklist(macs); err != nil {
			return err
		}
		ui.Success("Blacklisted %s.", mac)
		return nil
	},
}

func init() {
	Command.AddCommand(blacklistCmd)
}
