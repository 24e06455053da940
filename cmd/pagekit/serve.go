package main

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pagekit/internal/proxy"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			cfg, err := proxy.LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if env := os.Getenv("PORT"); env != "" && !cmd.Flags().Changed("addr") {
				addr = ":" + env
			}

			log.SetFlags(log.LstdFlags | log.Lmicroseconds)
			log.SetOutput(os.Stdout)
			cfg.Logger = log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)

			handler, err := proxy.New(cfg)
			if err != nil {
				return fmt.Errorf("starting server: %w", err)
			}
			defer handler.Close()

			srv := &http.Server{
				Addr:    addr,
				Handler: handler,
				// Conservative timeouts to avoid slowloris and leaked connections blocking the server
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      2 * time.Minute,
				IdleTimeout:       60 * time.Second,
				ErrorLog:          log.New(os.Stdout, "HTTPERR ", log.LstdFlags|log.Lmicroseconds),
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", addr, err)
			}
			log.Printf("Listening on %s (storage=%s, upstream=%q, site=%q)", addr, cfg.Storage, cfg.Upstream, cfg.SiteDir)
			return srv.Serve(ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8081", "listen address, e.g. :81 or 0.0.0.0:8081")
	return cmd
}
