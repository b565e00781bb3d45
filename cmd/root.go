package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dScene/cmd/convert"
	"github.com/ValentinKolb/dScene/cmd/inspect"
	"github.com/ValentinKolb/dScene/cmd/util"
	"github.com/ValentinKolb/dScene/lib/common"
	"github.com/ValentinKolb/dScene/lib/serializer"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dscene",
		Short: "registry driven scene serialization",
		Long: fmt.Sprintf(`dScene (v%s)

Encode, decode and convert scenes (resources and entities of
registered types) between json, yaml, cbor and a compact binary format.`, Version),
		SilenceUsage:       true,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dScene",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dScene v%s\n", Version)
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(convert.ConvertCmd)
	RootCmd.AddCommand(inspect.InspectCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupGlobalFlags(RootCmd)
}

// setup binds the flags of the executed command and configures logging
func setup(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	conf := util.GetConfig()
	if err := common.InitLoggers(conf); err != nil {
		return err
	}
	return nil
}

// teardown prints the collected metrics if requested
func teardown(_ *cobra.Command, _ []string) error {
	if util.GetConfig().Metrics {
		serializer.WriteMetrics(os.Stderr)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
