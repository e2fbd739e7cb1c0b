// Command souq runs the storefront API and its maintenance tasks.
//
//	souq serve             # start the HTTP server
//	souq route:list        # list API routes
//	souq migrate           # run SQL migrations
//	souq migrate:rollback
//	souq migrate:status
//	souq seed              # admin account + demo catalogue
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "souq",
	Short:         "Souq storefront API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)
}
