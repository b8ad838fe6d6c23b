package main

import (
	"fmt"

	"github.com/artpar/newsdemo/core/channel/cli"
	"github.com/artpar/newsdemo/core/formatter"
	"github.com/artpar/newsdemo/domain/auth"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign up or log in against the backend",
	Long: `Run the account flow from the terminal.

Missing values are prompted for; the password is read without echo.
The session lives only for the duration of the command.

Examples:
  newsdemo auth signup --email=dev@example.com --name=Dev
  echo hunter22 | newsdemo auth login --email=dev@example.com`,
}

var authSignupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	RunE:  runAuthSignup,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check credentials and show the account",
	RunE:  runAuthLogin,
}

var (
	authEmail    string
	authPassword string
	authName     string
)

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSignupCmd)
	authCmd.AddCommand(authLoginCmd)

	authCmd.PersistentFlags().StringVar(&authEmail, "email", "", "account email")
	authCmd.PersistentFlags().StringVar(&authPassword, "password", "", "account password (prompted when empty)")
	authSignupCmd.Flags().StringVar(&authName, "name", "", "display name")
}

func runAuthSignup(cmd *cobra.Command, args []string) error {
	f, err := output()
	if err != nil {
		return err
	}

	p := cli.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
	req := auth.SignupRequest{}
	if req.Email, err = p.PromptDefault("email", authEmail, false); err != nil {
		return err
	}
	if req.Name, err = p.PromptDefault("name", authName, false); err != nil {
		return err
	}
	if req.Password, err = p.PromptDefault("password", authPassword, true); err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.auth.Signup().MutateAsync(cmd.Context(), req); err != nil {
		return userError(err)
	}
	return printSession(cmd, s, f, "Signed up successfully!")
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	f, err := output()
	if err != nil {
		return err
	}

	p := cli.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
	req := auth.LoginRequest{}
	if req.Email, err = p.PromptDefault("email", authEmail, false); err != nil {
		return err
	}
	if req.Password, err = p.PromptDefault("password", authPassword, true); err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.auth.Login().MutateAsync(cmd.Context(), req); err != nil {
		return userError(err)
	}
	return printSession(cmd, s, f, "Logged in successfully!")
}

// printSession reads /auth/me through the cache the mutation just invalidated.
func printSession(cmd *cobra.Command, s *session, f formatter.Formatter, msg string) error {
	r := s.auth.CurrentUser().Use(cmd.Context())
	if r.Err != nil {
		return userError(r.Err)
	}
	u, ok := auth.CurrentUser(r.Data)
	if !ok {
		return fmt.Errorf("backend did not start a session")
	}

	fmt.Fprintln(cmd.ErrOrStderr(), msg)
	return f.FormatRecord(cmd.OutOrStdout(), formatter.UserSchema, formatter.UserRecord(u), formatter.FormatOptions{})
}
