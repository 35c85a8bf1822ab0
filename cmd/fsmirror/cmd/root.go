package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/fsmirror/fsmirror/pkg/config"
	"github.com/fsmirror/fsmirror/pkg/mlogger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fsmirror",
	Short: "fsmirror keeps fileserver content caches in sync",
	Long: `fsmirror mirrors configured content sources into local caches read by the
configuration-management fileserver.

Two independent trees are served: state definitions and pillar data. Each
tree has its own ordered set of backends (local directories, git remotes)
resolved from configuration.
`,
}

var (
	cfg    *config.Config
	logger *zap.Logger
)

// used to patch over calls to os.Exit() during test
var logFatalln = log.Fatalln
var osExit = os.Exit

var flags struct {
	config   string
	logLevel string
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		osExit(1)
	}
}

func init() {
	log.SetFlags(0)
	addConfigFlags(rootCmd.PersistentFlags())
	cobra.OnInitialize(initConfig)
}

func addConfigFlags(fs *pflag.FlagSet) {
	fs.StringVar(&flags.config, "config", "",
		"config file (default fsmirror.yaml in ., $HOME/.fsmirror, /etc/fsmirror)")
	fs.StringVar(&flags.logLevel, "loglevel", mlogger.LogLevelInfo,
		"log level (debug|info|none)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	switch {
	case flags.config != "":
		viper.SetConfigFile(flags.config)
	case os.Getenv("FSMIRROR_CONFIG") != "":
		viper.SetConfigFile(os.Getenv("FSMIRROR_CONFIG"))
	default:
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.fsmirror")
		viper.AddConfigPath("/etc/fsmirror")
		viper.SetConfigName("fsmirror")
	}

	viper.AutomaticEnv() // read in environment variables that match
	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}

	var err error
	cfg, err = config.Load(viper.GetViper())
	if err != nil {
		logFatalln(err)
	}
	logger, err = mlogger.New(flags.logLevel)
	if err != nil {
		logFatalln(err)
	}
}

func wrapFatalln(msg string, err error) {
	if err != nil {
		logFatalln(msg + ": " + err.Error())
		return
	}
	logFatalln(msg)
}
