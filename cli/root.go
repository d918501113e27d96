// Package cli wires the toolbox commands: one subcommand per tool plus
// the HTTP server.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var verbose bool

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "toolbox",
	Short: "HayCash ToolBox - utilidades fiscales de back-office",
	Long: `ToolBox bundles the HayCash back-office utilities:

  csf        extract CSF / CFDI fields into an Excel workbook
  contrato   pull the anchored amounts out of factoring contracts
  bbva       turn a dispersion table into the BBVA fixed-width layout
  factoraje  build the supplier concentration report from Syntage
  edocat     read the headline figures of a bank statement
  serve      expose every tool over HTTP

Configuration comes from environment variables (TOOLBOX_* plus the
service keys: OPENAI_API_KEY, SYNTAGE_API_KEY, TESSDATA_PREFIX).`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("toolbox v1.3.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in environment variables that match TOOLBOX_*
func initConfig() {
	viper.SetEnvPrefix("TOOLBOX")
	viper.AutomaticEnv()
}
