// Command voxwfc drives the voxel store and wave-function-collapse
// generator from the command line: building stamp libraries from example
// volumes, running generation passes, and inspecting snapshots.  All file
// I/O lives here; the core packages only expose serializable snapshots.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxelforge/voxwfc/vox"
)

var (
	configFile string
	config     vox.Config
)

var rootCmd = &cobra.Command{
	Use:   "voxwfc",
	Short: "Chunked voxel storage with wave-function-collapse generation",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		config, err = vox.LoadConfig(configFile)
		if err != nil {
			return err
		}
		config.Logging.SetLogger()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "TOML configuration file")
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(infoCmd)
}

func main() {
	defer vox.LogShutdown()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
