// Command orgctl is the operator CLI: it migrates the schema and bootstraps
// tenants and administrator accounts without going through the API.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/association-platform/internal/config"
	"github.com/iliyamo/association-platform/internal/database"
	"github.com/iliyamo/association-platform/internal/logger"
	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/repository"
	"github.com/iliyamo/association-platform/internal/service"
	"github.com/iliyamo/association-platform/internal/utils"
)

var rootCmd = &cobra.Command{
	Use:           "orgctl",
	Short:         "Association platform administration CLI",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *sql.DB, cfg config.Config, log *zap.Logger) error {
			return database.Migrate(ctx, db, cfg.DBDriver, log)
		})
	},
}

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Tenant management",
}

var (
	tenantName string
	tenantSlug string
	tenantTier string
)

var tenantCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an organization",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *sql.DB, _ config.Config, _ *zap.Logger) error {
			t := model.Tenant{Name: tenantName, Slug: tenantSlug, PlanTier: model.PlanTier(strings.ToLower(tenantTier))}
			if err := service.NewTenantService(repository.NewTenantRepo(db)).CreateTenant(ctx, &t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created tenant %d (%s, %s)\n", t.ID, t.Slug, t.PlanTier)
			return nil
		})
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrator accounts",
}

var (
	adminEmail    string
	adminPassword string
	adminName     string
	adminTenant   string
	adminPlatform bool
)

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a tenant administrator or a platform administrator",
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminTenant == "" && !adminPlatform {
			return fmt.Errorf("either --tenant-slug or --platform is required")
		}
		if len(adminPassword) < 8 {
			return fmt.Errorf("password must be at least 8 characters")
		}
		return withDB(cmd.Context(), func(ctx context.Context, db *sql.DB, cfg config.Config, _ *zap.Logger) error {
			u := model.User{
				Email:           strings.ToLower(strings.TrimSpace(adminEmail)),
				FullName:        adminName,
				Role:            model.RoleAdmin,
				IsActive:        true,
				IsPlatformAdmin: adminPlatform,
			}
			if adminTenant != "" {
				t, err := repository.NewTenantRepo(db).GetBySlug(ctx, strings.ToLower(adminTenant))
				if err != nil {
					return fmt.Errorf("tenant %q: %w", adminTenant, err)
				}
				u.TenantID = &t.ID
			}
			hash, err := utils.HashPassword(adminPassword, cfg.BcryptCost)
			if err != nil {
				return err
			}
			u.PasswordHash = hash
			if err := repository.NewUserRepo(db).Create(ctx, &u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %d (%s)\n", u.ID, u.Email)
			return nil
		})
	},
}

// withDB loads configuration, opens the database and runs fn with a bounded
// context.
func withDB(parent context.Context, fn func(context.Context, *sql.DB, config.Config, *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(os.Stderr, cfg.LogLevel, "console")
	if err != nil {
		return err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(parent, time.Minute)
	defer cancel()
	return fn(logger.NewContext(ctx, log), db, cfg, log)
}

func init() {
	tenantCreateCmd.Flags().StringVar(&tenantName, "name", "", "organization name")
	tenantCreateCmd.Flags().StringVar(&tenantSlug, "slug", "", "URL slug (lowercase, dashes)")
	tenantCreateCmd.Flags().StringVar(&tenantTier, "tier", string(model.PlanStarter), "plan tier: starter, professional or business")
	_ = tenantCreateCmd.MarkFlagRequired("name")
	_ = tenantCreateCmd.MarkFlagRequired("slug")

	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "login email")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "initial password")
	adminCreateCmd.Flags().StringVar(&adminName, "name", "", "full name")
	adminCreateCmd.Flags().StringVar(&adminTenant, "tenant-slug", "", "organization the admin belongs to")
	adminCreateCmd.Flags().BoolVar(&adminPlatform, "platform", false, "grant platform administration")
	_ = adminCreateCmd.MarkFlagRequired("email")
	_ = adminCreateCmd.MarkFlagRequired("password")

	tenantCmd.AddCommand(tenantCreateCmd)
	adminCmd.AddCommand(adminCreateCmd)
	rootCmd.AddCommand(migrateCmd, tenantCmd, adminCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "orgctl:", err)
		os.Exit(1)
	}
}
