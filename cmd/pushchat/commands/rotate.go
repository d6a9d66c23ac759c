package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"pushchat/internal/app"
	"pushchat/internal/services/identity"
)

// rotate: one identity rotation through the same persistence path the
// running session uses.
func rotateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Rotate user signing keys and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, found, err := appWire.Sink.LoadSessionState(ctx); err != nil {
				return err
			} else if !found {
				return errNoSession
			}

			cfg := appCfg
			cfg.In = cmd.InOrStdin()
			cfg.Out = cmd.OutOrStdout()
			s, err := app.Bootstrap(ctx, appWire, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Client.RotateIdentities(ctx); err != nil {
				return err
			}
			for _, u := range s.State.Snapshot().Users {
				fmt.Fprintf(cmd.OutOrStdout(), "%v: %s\n", u.Handles, identity.Fingerprint(u.SigningPub))
			}
			return nil
		},
	}
	return cmd
}
