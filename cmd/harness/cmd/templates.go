package cmd

import (
	"fmt"
	"strings"

	"github.com/MinterTeam/minter-harness/core/native"
	"github.com/spf13/cobra"
)

var Templates = &cobra.Command{
	Use:   "templates",
	Short: "List deployable contract templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := native.DefaultRegistry()

		for _, name := range registry.Names() {
			template, _ := registry.Get(name)

			inputs := make([]string, 0)
			for _, input := range template.ABI().Constructor.Inputs {
				inputs = append(inputs, input.Type.String()+" "+input.Name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s(%s)\n", name, strings.Join(inputs, ", "))
		}

		return nil
	},
}
