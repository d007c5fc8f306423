package main

import (
	"fmt"
	"log/slog"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Veraticus/insight-ledger/internal/validate"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
	}

	cmd.AddCommand(loginCmd())
	cmd.AddCommand(registerCmd())
	cmd.AddCommand(logoutCmd())
	cmd.AddCommand(profileCmd())

	return cmd
}

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and store a session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := args[0]
			if msg := validate.Email(email); msg != "" {
				return fmt.Errorf("%s", msg)
			}

			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}
			if msg := validate.Password(password); msg != "" {
				return fmt.Errorf("%s", msg)
			}

			a, err := newApp()
			if err != nil {
				return err
			}

			resp, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			slog.Info("Signed in", "user", resp.User.Username)
			return nil
		},
	}
	return cmd
}

func registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <username> <email>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, email := args[0], args[1]
			if msg := validate.Name(username); msg != "" {
				return fmt.Errorf("%s", msg)
			}
			if msg := validate.Email(email); msg != "" {
				return fmt.Errorf("%s", msg)
			}

			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}
			if msg := validate.Password(password); msg != "" {
				return fmt.Errorf("%s", msg)
			}
			confirm, err := readPassword("Confirm password: ")
			if err != nil {
				return err
			}
			if msg := validate.PasswordConfirm(confirm, password); msg != "" {
				return fmt.Errorf("%s", msg)
			}

			a, err := newApp()
			if err != nil {
				return err
			}

			resp, err := a.client.Register(cmd.Context(), username, email, password)
			if err != nil {
				return err
			}

			slog.Info("Account created", "user", resp.User.Username)
			return nil
		},
	}
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session token",
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.session.Logout(); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
			slog.Info("Signed out")
			return nil
		},
	}
}

func profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the signed-in user's profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			user, err := a.client.Profile(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Username: %s\n", user.Username)
			fmt.Printf("Email:    %s\n", user.Email)
			if user.FirstName != "" || user.LastName != "" {
				fmt.Printf("Name:     %s %s\n", user.FirstName, user.LastName)
			}
			return nil
		},
	}
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}
