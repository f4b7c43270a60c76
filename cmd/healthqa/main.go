package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"healthqa/config"
	"healthqa/internal/kb"
	"healthqa/internal/retrieval"
	srv "healthqa/internal/server"
)

func main() {
	root := &cobra.Command{Use: "healthqa", Short: "Evidence-graded health question answering service"}
	root.AddCommand(serveCmd(), ingestCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			return srv.Run(cfg)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches . and ./config)")
	return cmd
}

func ingestCmd() *cobra.Command {
	var cfgPath, input string
	var rebuild bool
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Clean, chunk and index crawled documents into the knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			logger := log.New(log.Writer(), "[INGEST] ", log.LstdFlags)

			docs, err := kb.LoadDocuments(input)
			if err != nil {
				return err
			}
			chunks := kb.BuildChunks(docs, kb.Options{
				ChunkSize:    cfg.Ingest.ChunkSize,
				ChunkOverlap: cfg.Ingest.ChunkOverlap,
				MinChunkLen:  cfg.Ingest.MinChunkLen,
			})
			if len(chunks) == 0 {
				return fmt.Errorf("no chunks produced from %s", input)
			}

			if rebuild {
				if err := os.RemoveAll(cfg.Retrieval.IndexPath); err != nil {
					return err
				}
			}
			index, err := retrieval.Open(cfg.Retrieval.IndexPath)
			if err != nil {
				index, err = retrieval.Create(cfg.Retrieval.IndexPath)
				if err != nil {
					return err
				}
			}
			defer index.Close()

			if err := index.IndexChunks(chunks); err != nil {
				return err
			}
			count, err := index.DocCount()
			if err != nil {
				return err
			}
			logger.Printf("indexed %d chunks from %d documents (index now holds %d)", len(chunks), len(docs), count)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches . and ./config)")
	cmd.Flags().StringVarP(&input, "input", "i", "data/crawled_knowledge_base.json", "JSON array of normalized documents")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "drop and recreate the index before ingesting")
	return cmd
}
