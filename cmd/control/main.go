// cmd/control is an operator CLI for out-of-band fixes (spec has no
// admin-API surface for these): create a tenant, create its first
// owner user, grant a guest role, reset a user's password, or inspect a
// user/tenant pairing. Grounded on the teacher's own cmd/control tool
// (same flag.NewFlagSet-per-subcommand shape), rewritten against this
// module's ports/postgres repos instead of direct sqlc queries and raw
// SQL UPDATE statements.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/config"
	"github.com/mycelium-platform/mycelium/internal/cryptox"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/storage/postgres"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: control <command> [args]")
		fmt.Println("Commands:")
		fmt.Println("  create-tenant    Create a new tenant and its first owner user")
		fmt.Println("  create-user      Create a standalone internal user")
		fmt.Println("  reset-password   Reset a user's password by email")
		fmt.Println("  check-user       Inspect a user and its tenant ownerships")
		fmt.Println("  grant-role       Grant a guest role to an email on an account")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "create-tenant":
		createTenantCmd()
	case "create-user":
		createUserCmd()
	case "reset-password":
		resetPasswordCmd()
	case "check-user":
		checkUserCmd()
	case "grant-role":
		grantRoleCmd()
	default:
		log.Fatalf("Unknown command: %s", os.Args[1])
	}
}

func connect() (*postgres.UserRepo, *postgres.TenantRepo, *postgres.GuestRoleRepo, *postgres.GuestUserRepo) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	pool, err := postgres.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	return postgres.NewUserRepo(pool), postgres.NewTenantRepo(pool), postgres.NewGuestRoleRepo(pool), postgres.NewGuestUserRepo(pool)
}

func createTenantCmd() {
	fs := flag.NewFlagSet("create-tenant", flag.ExitOnError)
	name := fs.String("name", "", "Tenant name")
	ownerEmail := fs.String("owner-email", "", "First owner's email")
	ownerPassword := fs.String("owner-password", "", "First owner's password")
	fs.Parse(os.Args[2:])

	if *name == "" || *ownerEmail == "" || *ownerPassword == "" {
		fmt.Println("Error: --name, --owner-email, and --owner-password are required")
		os.Exit(1)
	}

	users, tenants, _, _ := connect()
	ctx := context.Background()

	hasher := cryptox.NewArgon2Hasher()
	hash, err := hasher.Hash(*ownerPassword)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	owner := domain.User{
		ID:       uuid.New(),
		Username: *ownerEmail,
		Email:    domain.NormalizeEmail(*ownerEmail),
		Provider: domain.NewInternalProvider(hash),
		IsActive: true,
		Created:  time.Now(),
		Updated:  time.Now(),
	}
	userResult, mErr := users.Create(ctx, owner)
	if mErr != nil {
		log.Fatalf("failed to create owner user: %s", mErr.Message)
	}
	if !userResult.Created {
		log.Fatalf("owner user not created: %s", userResult.Reason)
	}

	tenant := domain.Tenant{
		ID:      uuid.New(),
		Name:    *name,
		Meta:    map[domain.TenantMetaKey]string{},
		Status:  []domain.TenantStatus{domain.TenantStatusActive},
		Owners:  []domain.UserRef{{ID: owner.ID, Email: owner.Email}},
		Created: time.Now(),
		Updated: time.Now(),
	}
	tenantResult, mErr := tenants.Create(ctx, tenant)
	if mErr != nil {
		log.Fatalf("failed to create tenant: %s", mErr.Message)
	}
	if !tenantResult.Created {
		log.Fatalf("tenant not created: %s", tenantResult.Reason)
	}

	fmt.Println("Tenant created successfully.")
	fmt.Printf("Tenant ID: %s\n", tenant.ID)
	fmt.Printf("Owner ID:  %s\n", owner.ID)
	fmt.Printf("Owner email: %s\n", owner.Email)
}

func createUserCmd() {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	email := fs.String("email", "", "User email")
	password := fs.String("password", "", "User password")
	fs.Parse(os.Args[2:])

	if *email == "" || *password == "" {
		fmt.Println("Error: --email and --password are required")
		os.Exit(1)
	}

	users, _, _, _ := connect()
	hasher := cryptox.NewArgon2Hasher()
	hash, err := hasher.Hash(*password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	user := domain.User{
		ID:       uuid.New(),
		Username: *email,
		Email:    domain.NormalizeEmail(*email),
		Provider: domain.NewInternalProvider(hash),
		IsActive: true,
		Created:  time.Now(),
		Updated:  time.Now(),
	}
	result, mErr := users.Create(context.Background(), user)
	if mErr != nil {
		log.Fatalf("failed to create user: %s", mErr.Message)
	}
	if !result.Created {
		log.Fatalf("user not created: %s", result.Reason)
	}
	fmt.Printf("User created. ID: %s\n", user.ID)
}

func resetPasswordCmd() {
	fs := flag.NewFlagSet("reset-password", flag.ExitOnError)
	email := fs.String("email", "", "User email")
	password := fs.String("password", "", "New password")
	fs.Parse(os.Args[2:])

	if *email == "" || *password == "" {
		fmt.Println("Error: --email and --password are required")
		os.Exit(1)
	}

	users, _, _, _ := connect()
	ctx := context.Background()

	fetched, mErr := users.FetchByEmail(ctx, *email)
	if mErr != nil {
		log.Fatalf("failed to fetch user: %s", mErr.Message)
	}
	if !fetched.Found {
		log.Fatalf("no user found with email: %s", *email)
	}

	hasher := cryptox.NewArgon2Hasher()
	hash, err := hasher.Hash(*password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	result, mErr := users.UpdatePassword(ctx, fetched.Record.ID, hash)
	if mErr != nil {
		log.Fatalf("failed to update password: %s", mErr.Message)
	}
	if !result.Updated {
		log.Fatalf("password not updated: %s", result.Reason)
	}
	fmt.Printf("Password reset for %s\n", *email)
}

func checkUserCmd() {
	fs := flag.NewFlagSet("check-user", flag.ExitOnError)
	email := fs.String("email", "", "User email")
	fs.Parse(os.Args[2:])

	if *email == "" {
		fmt.Println("Error: --email is required")
		os.Exit(1)
	}

	users, tenants, _, _ := connect()
	ctx := context.Background()

	fetched, mErr := users.FetchByEmail(ctx, *email)
	if mErr != nil {
		log.Fatalf("failed to fetch user: %s", mErr.Message)
	}
	if !fetched.Found {
		log.Fatalf("no user found with email: %s", *email)
	}

	fmt.Printf("User found.\nID: %s\nEmail: %s\nActive: %v\n", fetched.Record.ID, fetched.Record.Email, fetched.Record.IsActive)

	ownerships, mErr := tenants.FetchOwnershipsForUser(ctx, fetched.Record.ID)
	if mErr != nil {
		log.Fatalf("failed to fetch tenant ownerships: %s", mErr.Message)
	}
	if !ownerships.Found {
		fmt.Println("Owns no tenants.")
		return
	}
	fmt.Println("Owns tenants:")
	for _, o := range ownerships.Records {
		fmt.Printf("  - %s\n", o.TenantID)
	}
}

func grantRoleCmd() {
	fs := flag.NewFlagSet("grant-role", flag.ExitOnError)
	email := fs.String("email", "", "Guest email")
	roleSlug := fs.String("role", "", "Guest role slug")
	accountID := fs.String("account", "", "Account ID (UUID)")
	fs.Parse(os.Args[2:])

	if *email == "" || *roleSlug == "" || *accountID == "" {
		fmt.Println("Error: --email, --role, and --account are required")
		os.Exit(1)
	}

	accID, err := uuid.Parse(*accountID)
	if err != nil {
		log.Fatalf("invalid account ID: %v", err)
	}

	_, _, roles, guests := connect()
	ctx := context.Background()

	role, mErr := roles.FetchBySlug(ctx, *roleSlug)
	if mErr != nil {
		log.Fatalf("failed to fetch guest role: %s", mErr.Message)
	}
	if !role.Found {
		log.Fatalf("no guest role with slug: %s", *roleSlug)
	}

	result, mErr := guests.Create(ctx, domain.NormalizeEmail(*email), role.Record.ID, accID)
	if mErr != nil {
		log.Fatalf("failed to grant role: %s", mErr.Message)
	}
	if !result.Created {
		log.Fatalf("role not granted: %s", result.Reason)
	}
	fmt.Printf("Granted role %s to %s on account %s\n", *roleSlug, *email, accID)
}
