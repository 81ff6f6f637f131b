package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"automaton/internal/loader"
)

var validateCmd = &cobra.Command{
	Use:   "validate <template>...",
	Short: "Parse and validate template files without running them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var failed int
		for _, path := range args {
			tmpl, err := loader.LoadFile(path)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %v\n", path, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK   %s: %q, %d nodes, %d variables, root=%s\n",
				path, tmpl.Name, len(tmpl.Nodes), len(tmpl.Variables), tmpl.RootNode)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d templates failed validation", failed, len(args))
		}
		return nil
	},
}
