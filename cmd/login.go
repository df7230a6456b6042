package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/coopcal/internal/google"
	"github.com/teemow/coopcal/internal/logging"
)

// freshLoginStore hides any stored token so that the authenticator always
// runs an interactive login, while still saving the result.
type freshLoginStore struct {
	google.TokenStore
}

func (freshLoginStore) Load() (*google.Credentials, error) {
	return nil, google.ErrNoToken
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize read-only access to Google Calendar",
		Long: `Run the browser based OAuth flow and store the resulting token. A valid
stored token is reused (and refreshed if needed) unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			fileStore, err := a.tokenStore()
			if err != nil {
				return err
			}
			var store google.TokenStore = fileStore
			if force {
				store = freshLoginStore{TokenStore: fileStore}
			}

			auth, err := a.authenticator(store)
			if err != nil {
				return err
			}
			ts, err := auth.TokenSource(ctx)
			if err != nil {
				return err
			}
			if _, err := ts.Token(); err != nil {
				return fmt.Errorf("failed to obtain token: %w", err)
			}

			a.logger.Info("authorized", logging.Path(fileStore.Path))
			fmt.Fprintf(cmd.OutOrStdout(), "Token stored in %s\n", fileStore.Path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Ignore the stored token and log in again")
	return cmd
}
