package main

import (
	"github.com/spf13/cobra"
	"github.com/warp/bono-engine/bonus"
)

func newRolesCmd(a *app) *cobra.Command {
	var process string

	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Print the role share table",
		Long: `Prints each role's share of a lot budget for a process type
(PRODUCCION or LEVANTE). Roles not listed are paid nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.cfg.DefaultProcess()
			if process != "" {
				var err error
				if p, err = bonus.ParseProcessType(process); err != nil {
					return err
				}
			}
			printRoles(cmd.OutOrStdout(), p)
			return nil
		},
	}
	cmd.Flags().StringVar(&process, "process", "", "PRODUCCION or LEVANTE (default from config)")
	return cmd
}
