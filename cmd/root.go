package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/yuri-rage/pit-ninja/cmd/config"
	"github.com/yuri-rage/pit-ninja/cmd/global"
	"github.com/yuri-rage/pit-ninja/cmd/probe"
	"github.com/yuri-rage/pit-ninja/internal/configuration"
	"github.com/yuri-rage/pit-ninja/internal/motor"
	"github.com/yuri-rage/pit-ninja/internal/orchestrator"
	"github.com/yuri-rage/pit-ninja/internal/ui"
)

// rootCmd represents the base command when called without any subcommands:
// it brings up the full daemon and blocks until terminated.
var rootCmd = &cobra.Command{
	Use:   "pitmasterd",
	Short: "A closed-loop BBQ pit temperature controller.",
	Long: `pitmasterd drives a smoker's intake fan and damper servo from one
or more BLE meat probes, holding a target pit temperature with a PID loop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		setupUi()
		printHeader()

		configPath := configuration.DetectAndReadConfigFile()
		ui.Info("Using configuration file at: %s", configPath)
		configuration.LoadConfig()
		if err := configuration.Validate(); err != nil {
			ui.Error("Config validation failed: %v", err)
			return err
		}

		bus, err := motor.OpenLinuxI2CBus(configuration.CurrentConfig.Motor.I2cBus)
		if err != nil {
			ui.Fatal("Could not open I2C bus %s: %v", configuration.CurrentConfig.Motor.I2cBus, err)
		}
		driver := motor.NewPCA9685Driver(bus, configuration.CurrentConfig.Motor.I2cAddress)
		if err := driver.Init(); err != nil {
			ui.Fatal("Could not initialize motor driver: %v", err)
		}

		orch, err := orchestrator.New(&configuration.CurrentConfig, driver)
		if err != nil {
			ui.Fatal("Could not initialize orchestrator: %v", err)
		}

		return orch.Run(context.Background())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&global.CfgFile, "config", "c", "", "config file (default is $HOME/pitmasterd.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&global.NoColor, "no-color", "", false, "Disable all terminal output coloration")
	rootCmd.PersistentFlags().BoolVarP(&global.Verbose, "verbose", "v", false, "More verbose output")

	rootCmd.AddCommand(config.Command)
	rootCmd.AddCommand(probe.Command)
}

func setupUi() {
	ui.SetDebugEnabled(global.Verbose)
	if global.NoColor {
		pterm.DisableColor()
	}
}

func printHeader() {
	err := pterm.DefaultBigText.WithLetters(
		pterm.NewLettersFromStringWithStyle("pit", pterm.NewStyle(pterm.FgLightRed)),
		pterm.NewLettersFromStringWithStyle("masterd", pterm.NewStyle(pterm.FgWhite)),
	).Render()
	if err != nil {
		fmt.Println("pitmasterd")
	}
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called by main.main(); only needs to run once.
func Execute() {
	cobra.OnInitialize(func() {
		configuration.InitConfig(global.CfgFile)
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
