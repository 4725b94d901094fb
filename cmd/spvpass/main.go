// Command spvpass rewrites SPIR-V binaries.
//
// Usage:
//
//	spvpass run [flags] <input.spv>
//	spvpass dis <input.spv>
//	spvpass validate <input.spv>
//
// Examples:
//
//	spvpass run --strip-debug -o out.spv shader.spv
//	spvpass run --separate-samplers --pairs pairs.json -o out.spv shader.spv
//	spvpass run --push-constant 2:0 --remap 0:*=1:* -o out.spv shader.spv
//	spvpass dis out.spv
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is filled when building with -ldflags, but *not* when installing
// via "go install".
var Version string

var rootCmd = &cobra.Command{
	Use:   "spvpass",
	Short: "Rewrite SPIR-V binaries.",
	Long:  "Strip, remap and restructure SPIR-V modules for graphics backends.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if getFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if !getFlag(cmd, "version") {
			fmt.Println(cmd.UsageString())
			return
		}
		fmt.Print("spvpass ")
		if Version != "" {
			fmt.Printf("%s", Version)
		} else if info, ok := debug.ReadBuildInfo(); ok {
			// Built via "go install"
			fmt.Printf("%s", info.Main.Version)
		} else {
			fmt.Printf("(unknown version)")
		}
		fmt.Println()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().Bool("version", false, "Report version of this executable")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().String("spirv-val", "spirv-val", "path of the spirv-val executable")
}

// Get an expected flag, or exit if an error arises.
func getFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return r
}

// Get an expected string flag, or exit if an error arises.
func getString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return r
}

// Get an expected string slice flag, or exit if an error arises.
func getStringArray(cmd *cobra.Command, flag string) []string {
	r, err := cmd.Flags().GetStringArray(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return r
}
