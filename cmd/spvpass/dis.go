package main

import (
	"fmt"
	"os"

	"github.com/gogpu/spvpass/spirv"
	"github.com/spf13/cobra"
)

var disCmd = &cobra.Command{
	Use:   "dis input.spv",
	Short: "Print a text listing of a SPIR-V binary.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
			os.Exit(1)
		}
		m, err := spirv.ParseModule(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", args[0], err)
			os.Exit(1)
		}
		if err := spirv.Disassemble(os.Stdout, m); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", args[0], err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(disCmd)
}
