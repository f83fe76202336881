package cli

import (
	"fmt"
	"time"

	"ordprov-service/internal/config"
	"ordprov-service/internal/genai"
	"ordprov-service/internal/ingest"

	"github.com/spf13/cobra"
)

// NewIngestCmd runs the offline pipeline that builds the question bank
// from archived exam documents.
func NewIngestCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Build the question bank from archived exam documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.OpenAI.APIKey == "" {
				return fmt.Errorf("ingest needs an OpenAI API key, set openai.api_key or OPENAI_API_KEY")
			}
			if cfg.Ingest.Manifest == "" {
				return fmt.Errorf("ingest.manifest not configured")
			}

			opts := ingest.Options{
				ManifestPath: cfg.Ingest.Manifest,
				BaseURL:      cfg.Ingest.BaseURL,
				DocumentDir:  cfg.Ingest.DocumentDir,
				OutputPath:   cfg.Ingest.Output,
				Pause:        2 * time.Second,
			}
			if opts.DocumentDir == "" {
				opts.DocumentDir = "ingestion/documents"
			}
			if opts.OutputPath == "" {
				opts.OutputPath = cfg.Bank.Path
			}

			pipeline := ingest.NewPipeline(genai.NewGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.Model))
			_, err = pipeline.Run(cmd.Context(), opts)
			return err
		},
	}
}
