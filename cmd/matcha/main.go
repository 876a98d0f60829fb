package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/redmonkez12/matcha/docs" // Swagger docs (generated)
)

// @title           Matcha API
// @version         1.0
// @description     Accounts, email verification, password reset, cookie sessions and profile completion for Matcha.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey CSRFToken
// @in header
// @name X-CSRF-TOKEN
// @description Token from GET /api/csrf. Sessions travel in the matcha_session cookie.

func main() {
	rootCmd := &cobra.Command{
		Use:           "matcha",
		Short:         "Matcha account and profile API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
	serveCmd.Flags().Bool("migrate", false, "Apply pending migrations before serving")

	migrateCmd := &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Manage the database schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE:      runMigrate,
	}

	tokensCmd := &cobra.Command{
		Use:   "tokens",
		Short: "Maintain secret tokens",
	}
	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete expired verification, reset and session tokens",
		RunE:  runPrune,
	}
	tokensCmd.AddCommand(pruneCmd)

	rootCmd.AddCommand(serveCmd, migrateCmd, tokensCmd)

	// Running without a subcommand serves the API
	rootCmd.RunE = serveCmd.RunE
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}
