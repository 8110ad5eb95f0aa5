package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pensaconnect/connect/internal/apperror"
)

func (a *app) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show who the configured token belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.session == nil {
				return apperror.Unauthorized("not logged in: set PENSA_API_TOKEN or pass --token")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user id: %d\n", a.session.UserID())

			exp, ok := a.session.ExpiresAt()
			switch {
			case !ok:
				fmt.Fprintln(out, "expires: never")
			case a.session.Expired(a.opts.Now()):
				fmt.Fprintf(out, "expires: %s (expired, log in again)\n", exp.UTC().Format("2006-01-02 15:04 MST"))
			default:
				left := exp.Sub(a.opts.Now()).Round(time.Minute)
				fmt.Fprintf(out, "expires: %s (in %s)\n", exp.UTC().Format("2006-01-02 15:04 MST"), left)
			}
			return nil
		},
	}
}
