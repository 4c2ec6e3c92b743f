package probe

import (
	"github.com/spf13/cobra"

	"github.com/yuri-rage/pit-ninja/internal/ui"
)

var whitelistCmd = &cobra.Command{
	Use:   "whitelist <mac>",
	Short: "Remove a probe MAC address from the blacklist",
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
		kept := macs[:0]
		found := false
		for _, m := range macs {
			if m == mac {
				found = true
				continue
			}
			kept = append(kept, m)
		}
		if !found {
			ui.Info("%s is not blacklisted.", mac)
			return nil
		}
		if err := pers.SaveBlacklist(kept); err != nil {
			return err
		}
		ui.Success("Whitelisted %s.", mac)
		return nil
	},
}

func init() {
	Command.AddCommand(whitelistCmd)
}
