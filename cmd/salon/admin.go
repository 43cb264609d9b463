package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/salon-scheduler/internal/application"
)

func (a *app) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeStore(store)

			applied, err := store.Migrate(cmd.Context(), a.logger)
			if err != nil {
				return fmt.Errorf("applying migrations: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeStore(store)

			status, err := store.MigrationStatus(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			current := status.CurrentVersion
			if current == "" {
				current = "none"
			}
			fmt.Fprintf(out, "current version: %s\n", current)
			for _, m := range status.Applied {
				fmt.Fprintf(out, "  applied  %s  %s\n", m.Version, m.AppliedAt.Format("2006-01-02 15:04:05"))
			}
			for _, m := range status.Pending {
				fmt.Fprintf(out, "  pending  %s  %s\n", m.Version, m.Description)
			}
			return nil
		},
	})
	return cmd
}

func (a *app) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage login accounts",
	}

	var admin bool
	create := &cobra.Command{
		Use:     "create USERNAME",
		Short:   "Create an account, reading the password from stdin",
		Args:    cobra.ExactArgs(1),
		Example: `  echo 's3cret-pass' | salon user create reception`,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeStore(store)
			svc, err := a.buildServices(store)
			if err != nil {
				return err
			}

			user, err := svc.users.CreateUser(cmd.Context(), application.CreateUserParams{Username: args[0], Password: password, IsAdmin: admin})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}
	create.Flags().BoolVar(&admin, "admin", false, "grant administrator rights")

	passwd := &cobra.Command{
		Use:   "passwd USERNAME",
		Short: "Replace an account password, reading it from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeStore(store)
			svc, err := a.buildServices(store)
			if err != nil {
				return err
			}

			if err := svc.users.SetPassword(cmd.Context(), args[0], password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(create, passwd)
	return cmd
}

// readPassword takes the first line of r.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password is required on stdin")
	}
	return password, nil
}
