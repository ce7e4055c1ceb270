package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fathussalafi/yayasan-api/internal/models"
	"github.com/fathussalafi/yayasan-api/internal/repository"
	"github.com/fathussalafi/yayasan-api/internal/service"
	"github.com/fathussalafi/yayasan-api/internal/validation"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage dashboard accounts",
	}
	cmd.AddCommand(newAdminCreateCmd())
	return cmd
}

func newAdminCreateCmd() *cobra.Command {
	var req models.CreateUserRequest
	var role string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a dashboard account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Role = models.UserRole(strings.ToUpper(strings.TrimSpace(role)))
			if !req.Role.Valid() {
				return fmt.Errorf("role must be SUPERADMIN, ADMIN or STAFF")
			}

			e, cleanup, err := connect()
			if err != nil {
				return err
			}
			defer cleanup()

			repo := repository.NewUserRepository(e.db)
			auth := service.NewAuthService(repo, repository.NewAuditRepository(e.db), validation.New(), e.logger, service.AuthConfig{
				AccessTokenSecret:  e.cfg.JWT.Secret,
				AccessTokenExpiry:  e.cfg.JWT.Expiration,
				RefreshTokenExpiry: e.cfg.JWT.RefreshExpiration,
				Issuer:             e.cfg.JWT.Issuer,
			})

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			user, err := auth.CreateUser(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s account %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "login email")
	cmd.Flags().StringVar(&req.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&req.Password, "password", "", "initial password (min 8 characters)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "SUPERADMIN, ADMIN or STAFF")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
