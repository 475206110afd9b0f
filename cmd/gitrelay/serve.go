package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rhinohq/gitrelay/internal/config"
	"github.com/rhinohq/gitrelay/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a relay service",
}

var serveGitHubCmd = &cobra.Command{
	Use:   "github",
	Short: "Start the GitHub-flavor relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(func(cfg *config.Config, log *logrus.Logger) (*server.Server, error) {
			if cfg.GitHubToken == "" {
				log.Warn("GITHUB_TOKEN is not set; comment submission will be rejected")
			}
			return server.NewGitHub(cfg, log)
		})
	},
}

var serveGitLabCmd = &cobra.Command{
	Use:   "gitlab",
	Short: "Start the GitLab-flavor relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(func(cfg *config.Config, log *logrus.Logger) (*server.Server, error) {
			if cfg.GitLabToken == "" {
				log.Warn("GITLAB_PRIVATE_TOKEN is not set; comment submission will be rejected")
			}
			return server.NewGitLab(cfg, log)
		})
	},
}

func init() {
	serveCmd.PersistentFlags().StringVar(&serveAddr, "addr", "", "listen address (overrides GITRELAY_ADDR, default :5000)")
	serveCmd.AddCommand(serveGitHubCmd)
	serveCmd.AddCommand(serveGitLabCmd)
	rootCmd.AddCommand(serveCmd)
}

func serve(build func(*config.Config, *logrus.Logger) (*server.Server, error)) error {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Load()
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	s, err := build(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return s.Start(ctx)
}
