package main

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/citsolutions/vpnportal/internal/server/api"
	"github.com/citsolutions/vpnportal/internal/server/services"
	"github.com/citsolutions/vpnportal/internal/server/storage"
	"github.com/citsolutions/vpnportal/internal/server/wireguard"
	"github.com/citsolutions/vpnportal/pkg/version"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var rootCmd = &cobra.Command{
	Use:   "vpnportal",
	Short: "CITS VPN Portal - internal access portal with MFA and WireGuard provisioning",
	Long:  "Web portal for internal VPN access: password + TOTP login, session management and WireGuard peer provisioning",
	// Default to serve command if no subcommand provided
	Run: func(cmd *cobra.Command, args []string) {
		runServe(cmd, args)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the portal server",
	Run:   runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			fmt.Println(version.GetVersionInfo())
			return
		}
		fmt.Println(version.GetVersion("vpnportal"))
	},
}

func init() {
	versionCmd.Flags().Bool("verbose", false, "Show detailed build information")
	rootCmd.AddCommand(serveCmd, adminCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	log.Printf("=== CITS VPN Portal ===")
	log.Printf("%s", version.GetVersion("vpnportal"))

	log.Println("Connecting to database...")
	db, err := storage.NewPostgresDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	log.Println("Running database migrations...")
	if err := runEmbeddedMigrations(db.DB.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations complete")

	// Repositories
	userRepo := storage.NewUserRepository(db)
	loginEventRepo := storage.NewLoginEventRepository(db)
	sessionRepo := storage.NewSessionRepository(db)
	siteRepo := storage.NewSiteRepository(db)
	peerRepo := storage.NewPeerRepository(db)
	settingsRepo := storage.NewSettingsRepository(db)

	// Services
	lockout := services.NewLockout(settingsRepo, loginEventRepo)
	sessionService := services.NewSessionService(sessionRepo)
	authService, err := services.NewAuthService(userRepo, lockout, sessionService)
	if err != nil {
		log.Fatalf("Failed to initialize auth service: %v", err)
	}

	wgController := wireguard.NewController()
	addressPool := services.NewAddressPool(siteRepo, peerRepo)
	peerService := services.NewPeerService(peerRepo, siteRepo, addressPool, wgController)

	router := api.NewRouter(api.RouterDeps{
		AuthService: authService,
		Sessions:    sessionService,
		PeerService: peerService,
		Users:       userRepo,
		DB:          db,
	})

	host := os.Getenv("API_HOST")
	if host == "" {
		host = "0.0.0.0"
	}
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	addr := fmt.Sprintf("%s:%s", host, port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go sweepExpiredSessions(sessionService)

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// sweepExpiredSessions periodically revokes sessions past their absolute
// lifetime so the sessions table reflects reality even for idle browsers.
func sweepExpiredSessions(sessionService *services.SessionService) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		if count, err := sessionService.Sweep(context.Background()); err != nil {
			log.Printf("Failed to sweep expired sessions: %v", err)
		} else if count > 0 {
			log.Printf("Revoked %d expired sessions", count)
		}
	}
}

func runEmbeddedMigrations(db *sql.DB) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	// Sort migrations by filename to ensure correct order
	var migrations []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".sql" {
			migrations = append(migrations, entry.Name())
		}
	}
	sort.Strings(migrations)

	for _, migration := range migrations {
		log.Printf("Applying migration: %s", migration)

		content, err := migrationsFS.ReadFile(filepath.Join("migrations", migration))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", migration, err)
		}

		// Migrations are written to be idempotent (IF NOT EXISTS), so a
		// re-run on an existing schema is harmless.
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("migration %s failed: %w", migration, err)
		}
	}

	return nil
}
