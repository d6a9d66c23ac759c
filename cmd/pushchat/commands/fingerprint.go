package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"pushchat/internal/services/identity"
)

func fingerprintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print device fingerprint and saved handles",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, found, err := appWire.Sink.LoadSessionState(cmd.Context())
			if err != nil {
				return err
			}
			if !found {
				return errNoSession
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Device fingerprint: %s\n", identity.DeviceFingerprint(state.Device))
			for _, u := range state.Users {
				fmt.Fprintf(out, "%v: %s (registered: %t)\n", u.Handles, identity.Fingerprint(u.SigningPub), u.IsRegistered())
			}
			return nil
		},
	}
	return cmd
}
