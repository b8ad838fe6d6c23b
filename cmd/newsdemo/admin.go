package main

import (
	"errors"
	"fmt"

	"github.com/artpar/newsdemo/bootstrap"
	"github.com/artpar/newsdemo/core/channel/cli"
	"github.com/artpar/newsdemo/ports"
	"github.com/spf13/cobra"
)

// Commands in this file open the backend database directly.

var newsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a news item from the database",
	Args:  cobra.ExactArgs(1),
	RunE:  runNewsDelete,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage login sessions in the database",
	Long: `Manage backend login sessions.

Examples:
  newsdemo sessions purge
  newsdemo sessions revoke dev@example.com`,
}

var sessionsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired sessions",
	RunE:  runSessionsPurge,
}

var sessionsRevokeCmd = &cobra.Command{
	Use:   "revoke <email>",
	Short: "Log an account out everywhere",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsRevoke,
}

var assumeYes bool

func init() {
	newsCmd.AddCommand(newsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsPurgeCmd)
	sessionsCmd.AddCommand(sessionsRevokeCmd)

	newsDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip confirmation")
}

func openStores(cmd *cobra.Command) (*bootstrap.Stores, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return bootstrap.OpenStores(cfg.Database, cliLogger(cfg, cmd.ErrOrStderr()))
}

func runNewsDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	if !assumeYes {
		ok, err := cli.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()).Confirm(fmt.Sprintf("Delete news item %q?", id))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	stores, err := openStores(cmd)
	if err != nil {
		return err
	}
	defer stores.Close()

	if err := stores.News.Delete(cmd.Context(), id); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return fmt.Errorf("news item %q not found", id)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted news item %s\n", id)
	return nil
}

func runSessionsPurge(cmd *cobra.Command, args []string) error {
	stores, err := openStores(cmd)
	if err != nil {
		return err
	}
	defer stores.Close()

	n, err := stores.Sessions.DeleteExpired(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired sessions\n", n)
	return nil
}

func runSessionsRevoke(cmd *cobra.Command, args []string) error {
	stores, err := openStores(cmd)
	if err != nil {
		return err
	}
	defer stores.Close()

	ctx := cmd.Context()
	acct, err := stores.Users.GetByEmail(ctx, args[0])
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return fmt.Errorf("no account for %s", args[0])
		}
		return err
	}
	if err := stores.Sessions.DeleteByUser(ctx, acct.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Revoked all sessions for %s\n", acct.Email)
	return nil
}
