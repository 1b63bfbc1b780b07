package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/persistorai/auditdesk/internal/identity"
	"github.com/persistorai/auditdesk/internal/models"
	"github.com/persistorai/auditdesk/internal/store"
)

// newCreateAdminCmd provisions the first administrator, since only admins can
// create users through the API.
func newCreateAdminCmd() *cobra.Command {
	var (
		email    string
		fullName string
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Long:  "Create an administrator account. The password is read from AUDITDESK_ADMIN_PASSWORD.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := models.CreateUserRequest{
				Email:    email,
				Password: os.Getenv("AUDITDESK_ADMIN_PASSWORD"),
				Role:     models.Ptr(models.RoleAdmin),
			}
			if fullName != "" {
				req.FullName = &fullName
			}

			if err := req.Validate(); err != nil {
				return err
			}

			_, log, pool, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			hash, err := identity.HashPassword(req.Password)
			if err != nil {
				return fmt.Errorf("hashing password: %w", err)
			}

			users := store.NewUserStore(store.Base{Pool: pool, Log: log})

			user, err := users.CreateAccount(cmd.Context(), req.Email, hash, req.FullName, req.RoleName())
			if errors.Is(err, models.ErrDuplicateKey) {
				return fmt.Errorf("a user with e-mail %s already exists", req.Email)
			}

			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Email, user.ID)

			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Administrator e-mail (required)")
	cmd.Flags().StringVar(&fullName, "name", "", "Full name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
