package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/phrazzld/caption-api/internal/config"
	"github.com/phrazzld/caption-api/internal/credential"
	"github.com/phrazzld/caption-api/internal/generation"
	"github.com/phrazzld/caption-api/internal/platform/logger"
	"github.com/phrazzld/caption-api/internal/platform/providers"
	"github.com/phrazzld/caption-api/internal/service/caption"
	"github.com/spf13/cobra"
)

// apiKeyEnv is the variable check-key reads when --key is not given.
const apiKeyEnv = config.EnvPrefix + "_PROVIDER_API_KEY"

// errInvalidKey makes check-key exit non-zero for an unusable key.
var errInvalidKey = errors.New("API key is not valid")

// serviceFactory builds the caption service from loaded configuration.
// Tests replace it to avoid real providers.
type serviceFactory func(ctx context.Context, cfg *config.Config, log *slog.Logger) (*caption.Service, error)

func defaultServiceFactory(ctx context.Context, cfg *config.Config, log *slog.Logger) (*caption.Service, error) {
	provider, err := providers.New(ctx, cfg.Provider, log, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize provider: %w", err)
	}
	return caption.NewService(provider, log, nil, caption.ConfigFrom(cfg))
}

type cli struct {
	newService serviceFactory
	loadConfig func() (*config.Config, error)
}

func newRootCmd() *cobra.Command {
	return (&cli{newService: defaultServiceFactory, loadConfig: config.Load}).rootCmd()
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "captionctl",
		Short: "Operate the caption API from the command line",
		Long: `captionctl checks provider credentials and runs caption generation
through the same service path as the HTTP server.

Configuration is read from config.yaml and CAPTION_* environment variables.`,
		SilenceUsage: true,
	}
	root.AddCommand(c.checkKeyCmd(), c.generateCmd())
	return root
}

func (c *cli) checkKeyCmd() *cobra.Command {
	var key string
	var remote bool

	cmd := &cobra.Command{
		Use:   "check-key",
		Short: "Validate the provider API key",
		Long: `Validate the shape of an API key without contacting the provider.

The key is taken from --key, or from ` + apiKeyEnv + ` when the flag is absent.
With --remote the configured provider is also asked to list its models.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if remote {
				return c.runRemoteCheck(cmd)
			}
			if !cmd.Flags().Changed("key") {
				key = os.Getenv(apiKeyEnv)
			}
			res := credential.Validate(key)
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Valid {
				return errInvalidKey
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "API key to validate")
	cmd.Flags().BoolVar(&remote, "remote", false, "also verify the configured key against the provider")
	return cmd
}

func (c *cli) runRemoteCheck(cmd *cobra.Command) error {
	svc, err := c.service(cmd)
	if err != nil {
		return err
	}
	report, err := svc.TestKey(cmd.Context())
	if err != nil {
		return err
	}
	if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if !report.Valid {
		return errInvalidKey
	}
	return nil
}

func (c *cli) generateCmd() *cobra.Command {
	var raw generation.RawRequest

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a caption and hashtags",
		Example: `  captionctl generate --location "Lisbon" --category travel
  captionctl generate --keyword espresso --mood funny --language es`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd)
			if err != nil {
				return err
			}
			res, err := svc.Generate(cmd.Context(), raw)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&raw.Location, "location", "", "location the caption is about")
	cmd.Flags().StringVar(&raw.Keyword, "keyword", "", "keyword the caption is about")
	cmd.Flags().StringVar(&raw.Category, "category", "", "content category (default general)")
	cmd.Flags().StringVar(&raw.Mood, "mood", "", "tone of the caption (default casual)")
	cmd.Flags().StringVar(&raw.Language, "language", "", "ISO-639-1 language code (default en)")
	return cmd
}

// service loads configuration and builds the caption service, logging to stderr.
func (c *cli) service(cmd *cobra.Command) (*caption.Service, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	level, _ := logger.ParseLevel(cfg.Server.LogLevel)
	log := logger.New(cmd.ErrOrStderr(), level)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return c.newService(ctx, cfg, log)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
