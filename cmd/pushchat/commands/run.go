package commands

import (
	"github.com/spf13/cobra"

	"pushchat/internal/app"
)

// run: bootstrap the session and drive the interactive loop.
func runCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the interactive session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appCfg
			cfg.Username = username
			cfg.In = cmd.InOrStdin()
			cfg.Out = cmd.OutOrStdout()

			s, err := app.Bootstrap(cmd.Context(), appWire, cfg)
			if err != nil {
				return err
			}
			defer s.Close()
			return s.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "handle to create on first run (prompted when empty)")
	return cmd
}
