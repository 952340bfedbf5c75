package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/parley-ai/parley/internal/cli"
	"github.com/parley-ai/parley/pkg/adapters/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the agent in server mode, exposing the conversation and admin endpoints as a JSON API over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger, err := loadSetup(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		agent, cleanup, err := cli.BuildAgent(cfg, logger)
		if err != nil {
			fmt.Printf("Error initializing agent: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Server.Addr
		}

		srv := &http.Server{
			Addr:    addr,
			Handler: httpapi.NewHandler(agent, httpapi.WithLogger(logger)),
		}

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Printf("Starting Parley server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Parley server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default from config)")
}
