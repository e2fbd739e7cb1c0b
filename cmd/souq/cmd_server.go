package main

import (
	"fmt"
	"net/http"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/souq/app/routes"
	"github.com/shashiranjanraj/souq/config"
	"github.com/shashiranjanraj/souq/internal/server"
	"github.com/shashiranjanraj/souq/pkg/router"
)

// souq serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.FromEnv()
		if err != nil {
			return err
		}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("invalid configuration:\n%w", err)
		}
		return server.Start(cmd.Context(), s)
	},
}

// souq route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := router.New()
		routes.RegisterAPI(r, routes.API{Files: http.NotFoundHandler()})

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range r.Routes() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}
