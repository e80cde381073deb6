package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/citsolutions/vpnportal/internal/server/storage"
	"github.com/citsolutions/vpnportal/internal/server/wireguard"
	"github.com/citsolutions/vpnportal/pkg/models"
	"github.com/citsolutions/vpnportal/pkg/utils"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative commands",
	Long:  "Administrative commands for managing users, sites and WireGuard peers",
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a portal user",
	Run:   runCreateUserCommand,
}

var setPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Reset a user's password",
	Run:   runSetPasswordCommand,
}

var setSuperadminCmd = &cobra.Command{
	Use:   "set-superadmin",
	Short: "Grant or revoke superadmin for a user",
	Run:   runSetSuperadminCommand,
}

var addSiteCmd = &cobra.Command{
	Use:   "add-site",
	Short: "Register a site subnet (interface address in CIDR form)",
	Run:   runAddSiteCommand,
}

var listPeersCmd = &cobra.Command{
	Use:   "list-peers",
	Short: "List peers with desired and live state",
	Run:   runListPeersCommand,
}

var syncPeersCmd = &cobra.Command{
	Use:   "sync-peers",
	Short: "Remove live WireGuard peers that have no database row",
	Run:   runSyncPeersCommand,
}

var listLoginsCmd = &cobra.Command{
	Use:   "list-logins",
	Short: "Show recent authentication attempts from the audit ledger",
	Run:   runListLoginsCommand,
}

func init() {
	createUserCmd.Flags().String("username", "", "Username (required)")
	createUserCmd.Flags().String("password", "", "Initial password (required)")
	createUserCmd.Flags().Bool("superadmin", false, "Grant superadmin")
	createUserCmd.MarkFlagRequired("username")
	createUserCmd.MarkFlagRequired("password")

	setPasswordCmd.Flags().String("username", "", "Username (required)")
	setPasswordCmd.Flags().String("password", "", "New password (required)")
	setPasswordCmd.MarkFlagRequired("username")
	setPasswordCmd.MarkFlagRequired("password")

	setSuperadminCmd.Flags().String("username", "", "Username (required)")
	setSuperadminCmd.Flags().Bool("revoke", false, "Revoke instead of grant")
	setSuperadminCmd.MarkFlagRequired("username")

	listLoginsCmd.Flags().Int("limit", 50, "Number of ledger rows to show")

	addSiteCmd.Flags().String("cidr", "", "Interface address in CIDR form, e.g. 10.88.0.1/24 (required)")
	addSiteCmd.MarkFlagRequired("cidr")

	adminCmd.AddCommand(
		createUserCmd,
		setPasswordCmd,
		setSuperadminCmd,
		addSiteCmd,
		listPeersCmd,
		syncPeersCmd,
		listLoginsCmd,
	)
}

func connectDB() *storage.DB {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	log.Println("Connecting to database...")
	db, err := storage.NewPostgresDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return db
}

func runCreateUserCommand(cmd *cobra.Command, args []string) {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	superadmin, _ := cmd.Flags().GetBool("superadmin")

	db := connectDB()
	defer db.Close()
	userRepo := storage.NewUserRepository(db)
	ctx := context.Background()

	existing, err := userRepo.GetByUsername(ctx, username)
	if err != nil {
		log.Fatalf("Failed to look up user: %v", err)
	}
	if existing != nil {
		log.Fatalf("User already exists: %s", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Active:       true,
		Superadmin:   superadmin,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("✓ User created: %s (id %s, superadmin %v)\n", username, user.ID, superadmin)
}

func runSetPasswordCommand(cmd *cobra.Command, args []string) {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")

	db := connectDB()
	defer db.Close()
	userRepo := storage.NewUserRepository(db)
	ctx := context.Background()

	user, err := userRepo.GetByUsername(ctx, username)
	if err != nil {
		log.Fatalf("Failed to look up user: %v", err)
	}
	if user == nil {
		log.Fatalf("User not found: %s", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	if err := userRepo.UpdatePasswordHash(ctx, user.ID, string(hash)); err != nil {
		log.Fatalf("Failed to update password: %v", err)
	}
	fmt.Printf("✓ Password updated for %s\n", username)
}

func runSetSuperadminCommand(cmd *cobra.Command, args []string) {
	username, _ := cmd.Flags().GetString("username")
	revoke, _ := cmd.Flags().GetBool("revoke")

	db := connectDB()
	defer db.Close()
	userRepo := storage.NewUserRepository(db)
	ctx := context.Background()

	user, err := userRepo.GetByUsername(ctx, username)
	if err != nil {
		log.Fatalf("Failed to look up user: %v", err)
	}
	if user == nil {
		log.Fatalf("User not found: %s", username)
	}

	if err := userRepo.SetSuperadmin(ctx, user.ID, !revoke); err != nil {
		log.Fatalf("Failed to update user: %v", err)
	}
	fmt.Printf("✓ %s superadmin=%v\n", username, !revoke)
}

func runAddSiteCommand(cmd *cobra.Command, args []string) {
	cidr, _ := cmd.Flags().GetString("cidr")
	if !utils.IsValidCIDR(cidr) {
		log.Fatalf("Invalid CIDR: %s", cidr)
	}

	db := connectDB()
	defer db.Close()
	siteRepo := storage.NewSiteRepository(db)
	ctx := context.Background()

	site := &models.Site{WgInterfaceIP: cidr}
	if err := siteRepo.Create(ctx, site); err != nil {
		log.Fatalf("Failed to create site: %v", err)
	}
	fmt.Printf("✓ Site created: %s (id %s)\n", cidr, site.ID)
}

func runListPeersCommand(cmd *cobra.Command, args []string) {
	db := connectDB()
	defer db.Close()
	peerRepo := storage.NewPeerRepository(db)
	controller := wireguard.NewController()
	ctx := context.Background()

	rows, err := peerRepo.List(ctx)
	if err != nil {
		log.Fatalf("Failed to list peers: %v", err)
	}
	live, err := controller.Status(ctx)
	if err != nil {
		log.Printf("Warning: could not read interface status: %v", err)
		live = map[string]wireguard.PeerStatus{}
	}

	fmt.Printf("%d peers in database, %d live on %s\n\n", len(rows), len(live), controller.Interface())
	for _, row := range rows {
		state := "inactive"
		handshake := "-"
		if status, ok := live[row.PublicKey]; ok {
			state = "live"
			if status.LatestHandshake != "" {
				handshake = status.LatestHandshake
			}
		}
		fmt.Printf("%-20s %-18s %-10s handshake: %s\n", row.Label, row.AddressCIDR, state, handshake)
		fmt.Printf("  %s\n", row.PublicKey)
	}

	// Live entries without a database row are orphans.
	var orphans []string
	for key := range live {
		peer, err := peerRepo.GetByPublicKey(ctx, key)
		if err != nil {
			log.Fatalf("Failed to look up peer: %v", err)
		}
		if peer == nil {
			orphans = append(orphans, key)
		}
	}
	if len(orphans) > 0 {
		fmt.Printf("\n%d orphaned live peers (run 'admin sync-peers' to remove):\n", len(orphans))
		fmt.Println("  " + strings.Join(orphans, "\n  "))
	}
}

func runListLoginsCommand(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	db := connectDB()
	defer db.Close()
	eventRepo := storage.NewLoginEventRepository(db)
	ctx := context.Background()

	events, err := eventRepo.ListRecent(ctx, limit)
	if err != nil {
		log.Fatalf("Failed to list login events: %v", err)
	}

	for _, e := range events {
		result := "FAIL"
		if e.Success {
			result = "ok"
		}
		fmt.Printf("%s  %-4s %-24s %-20s %s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), result,
			e.UsernameAttempted, e.Reason, e.IPAddress)
	}
	fmt.Printf("\n%d events\n", len(events))
}

func runSyncPeersCommand(cmd *cobra.Command, args []string) {
	db := connectDB()
	defer db.Close()
	peerRepo := storage.NewPeerRepository(db)
	controller := wireguard.NewController()
	ctx := context.Background()

	live, err := controller.Status(ctx)
	if err != nil {
		log.Fatalf("Failed to read interface status: %v", err)
	}

	removed := 0
	for key := range live {
		peer, err := peerRepo.GetByPublicKey(ctx, key)
		if err != nil {
			log.Fatalf("Failed to look up peer: %v", err)
		}
		if peer != nil {
			continue
		}
		fmt.Printf("Removing orphaned peer %s\n", key)
		if err := controller.RemovePeer(ctx, key); err != nil {
			log.Printf("Warning: failed to remove %s: %v", key, err)
			continue
		}
		removed++
	}
	fmt.Printf("✓ Removed %d orphaned peers\n", removed)
}
