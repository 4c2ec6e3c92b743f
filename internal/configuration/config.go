package configuration

import (
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/yuri-rage/pit-ninja/internal/ui"
)

// Configuration is the top level shape of pitmasterd.yaml.
type Configuration struct {
	DbPath string `mapstructure:"dbPath"`
	Units  string `mapstructure:"units"`

	SetPoint float64 `mapstructure:"setPoint"`

	Pid    PidConfig    `mapstructure:"pid"`
	Fan    FanConfig    `mapstructure:"fan"`
	Servo  ServoConfig  `mapstructure:"servo"`
	Lid    LidConfig    `mapstructure:"lid"`
	Motor  MotorConfig  `mapstructure:"motor"`
	Probes ProbesConfig `mapstructure:"probes"`
	Http   HttpConfig   `mapstructure:"http"`
}

type PidConfig struct {
	P float64 `mapstructure:"p"`
	I float64 `mapstructure:"i"`
	D float64 `mapstructure:"d"`
}

type FanConfig struct {
	MinSpeed        int  `mapstructure:"minSpeed"`
	MaxSpeed        int  `mapstructure:"maxSpeed"`
	MaxStartupSpeed int  `mapstructure:"maxStartupSpeed"`
	ActiveFloor     int  `mapstructure:"activeFloor"`
	Reverse         bool `mapstructure:"reverse"`
}

type ServoConfig struct {
	MinPosition int `mapstructure:"minPosition"`
	MaxPosition int `mapstructure:"maxPosition"`
}

type LidConfig struct {
	LidOpenOffset   float64       `mapstructure:"lidOpenOffset"`
	LidOpenDuration time.Duration `mapstructure:"lidOpenDuration"`
}

type MotorConfig struct {
	I2cBus     string `mapstructure:"i2cBus"`
	I2cAddress uint8  `mapstructure:"i2cAddress"`
}

type ProbesConfig struct {
	Blacklist []string `mapstructure:"blacklist"`
}

type HttpConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ListenAddress string `mapstructure:"listenAddress"`
}

// minLidOpenDuration is the minimum auto-resume window allowed for the
// lid-open countdown (spec invariant: lid_open_duration_sec >= 30).
const minLidOpenDuration = 30 * time.Second

// CurrentConfig holds the configuration loaded by LoadConfig.
var CurrentConfig Configuration

// InitConfig sets up the config file search path, ENV variable lookup and
// defaults. The file itself is read by DetectAndReadConfigFile.
func InitConfig(cfgFile string) {
	viper.SetConfigName("pitmasterd")
	viper.SetConfigType("yaml")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/etc/pitmasterd/")
	}

	viper.SetEnvPrefix("PITMASTERD")
	viper.AutomaticEnv()

	setDefaultValues()
}

func setDefaultValues() {
	viper.SetDefault("dbPath", "/etc/pitmasterd/pitmasterd.db")
	viper.SetDefault("units", "F")
	viper.SetDefault("setPoint", 225.0)

	viper.SetDefault("pid.p", 2.5)
	viper.SetDefault("pid.i", 0.0035)
	viper.SetDefault("pid.d", 6.0)

	viper.SetDefault("fan.minSpeed", 20)
	viper.SetDefault("fan.maxSpeed", 100)
	viper.SetDefault("fan.maxStartupSpeed", 100)
	viper.SetDefault("fan.activeFloor", 10)
	viper.SetDefault("fan.reverse", false)

	viper.SetDefault("servo.minPosition", 0)
	viper.SetDefault("servo.maxPosition", 100)

	viper.SetDefault("lid.lidOpenOffset", 20.0)
	viper.SetDefault("lid.lidOpenDuration", 90*time.Second)

	viper.SetDefault("motor.i2cBus", "/dev/i2c-1")
	viper.SetDefault("motor.i2cAddress", 0x40)

	viper.SetDefault("probes.blacklist", []string{})

	viper.SetDefault("http.enabled", false)
	viper.SetDefault("http.listenAddress", ":8980")
}

// DetectAndReadConfigFile locates, reads, and loads the config file,
// returning the path that was used.
func DetectAndReadConfigFile() string {
	if err := viper.ReadInConfig(); err != nil {
		ui.Fatal("Error reading config file: %s", err)
	}
	configPath := viper.ConfigFileUsed()
	LoadConfig()
	return configPath
}

// LoadConfig unmarshals viper's current state into CurrentConfig.
func LoadConfig() {
	err := viper.Unmarshal(&CurrentConfig)
	if err != nil {
		ui.Fatal("unable to decode configuration into struct: %v", err)
	}
}
