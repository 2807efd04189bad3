package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/psilva/grana/adapters/hasher"
	"github.com/psilva/grana/adapters/idgen"
	"github.com/psilva/grana/adapters/sqlite"
	"github.com/psilva/grana/config"
	"github.com/psilva/grana/ports"
	"github.com/spf13/cobra"
)

var (
	userEmail    string
	userName     string
	userPassword string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
	Long: `Manage Grana user accounts.

Each user owns their own cards, categories and transactions. Accounts
are normally created through the API; this command exists to bootstrap
the first account or to reset access on a running instance.

Examples:
  grana users create --email=ana@example.com --password=secret123
  grana users get ana@example.com`,
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user account",
	RunE:  runUsersCreate,
}

var usersGetCmd = &cobra.Command{
	Use:   "get <user-id-or-email>",
	Short: "Get account details",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersGet,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersCreateCmd)
	usersCmd.AddCommand(usersGetCmd)

	usersCreateCmd.Flags().StringVar(&userEmail, "email", "", "email address (required)")
	usersCreateCmd.Flags().StringVar(&userName, "name", "", "display name")
	usersCreateCmd.Flags().StringVar(&userPassword, "password", "", "password, at least 8 characters (required)")
	usersCreateCmd.MarkFlagRequired("email")
	usersCreateCmd.MarkFlagRequired("password")
}

func runUsersCreate(cmd *cobra.Command, args []string) error {
	email := strings.ToLower(strings.TrimSpace(userEmail))
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email: %q", userEmail)
	}
	if len(userPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	h := hasher.NewBcrypt(0)
	hash, err := h.Hash(userPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := ports.User{
		ID:           idgen.UUID{}.New(),
		Email:        email,
		Name:         userName,
		PasswordHash: hash,
	}

	store := sqlite.NewUserStore(db)
	if err := store.Create(context.Background(), user); err != nil {
		if err == sqlite.ErrDuplicate {
			return fmt.Errorf("a user with email %s already exists", email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("Created user: %s\n", user.ID)
	fmt.Printf("  Email: %s\n", user.Email)
	if user.Name != "" {
		fmt.Printf("  Name:  %s\n", user.Name)
	}
	return nil
}

func runUsersGet(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	store := sqlite.NewUserStore(db)
	ctx := context.Background()

	user, err := store.Get(ctx, args[0])
	if err == sqlite.ErrNotFound && strings.Contains(args[0], "@") {
		user, err = store.GetByEmail(ctx, strings.ToLower(args[0]))
	}
	if err != nil {
		if err == sqlite.ErrNotFound {
			return fmt.Errorf("user not found: %s", args[0])
		}
		return err
	}

	fmt.Printf("ID:      %s\n", user.ID)
	fmt.Printf("Email:   %s\n", user.Email)
	fmt.Printf("Name:    %s\n", user.Name)
	fmt.Printf("Created: %s\n", user.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func openDatabase() (*sqlite.DB, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}
