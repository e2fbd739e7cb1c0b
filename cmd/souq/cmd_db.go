package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/souq/config"
	_ "github.com/shashiranjanraj/souq/database/migrations"
	"github.com/shashiranjanraj/souq/database/seeders"
	"github.com/shashiranjanraj/souq/internal/server"
	"github.com/shashiranjanraj/souq/pkg/database"
	"github.com/shashiranjanraj/souq/pkg/migration"
)

// withRunner opens the SQL store and hands a migration runner to fn.
func withRunner(cmd *cobra.Command, fn func(*migration.Runner) error) error {
	s, err := config.FromEnv()
	if err != nil {
		return err
	}
	db, err := database.Connect(cmd.Context(), s.SQL)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	return fn(migration.New(db, cmd.OutOrStdout()))
}

// souq migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), "Running migrations…")
		return withRunner(cmd, (*migration.Runner).Run)
	},
}

// souq migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Roll back the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), "Rolling back last batch…")
		return withRunner(cmd, (*migration.Runner).Rollback)
	},
}

// souq migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(cmd, (*migration.Runner).Status)
	},
}

// souq seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the admin account and demo catalogue",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.FromEnv()
		if err != nil {
			return err
		}
		app, err := server.Stores(cmd.Context(), s)
		if err != nil {
			return err
		}
		defer app.Close()

		fmt.Fprintln(cmd.OutOrStdout(), "Running seeders…")
		return seeders.RunAll(cmd.Context(), seeders.Deps{SQL: app.SQL, Users: app.Users, Store: app.Store}, cmd.OutOrStdout())
	},
}
