package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/duynguyendang/evogen/internal/logging"
	"github.com/duynguyendang/evogen/pkg/evol"
	"github.com/duynguyendang/evogen/pkg/export"
	"github.com/duynguyendang/evogen/pkg/ingest"
	"github.com/duynguyendang/evogen/pkg/service/ai"
)

var (
	flagTarget       int
	flagOut          string
	flagFormat       string
	flagTemplateSeed int64
	flagDemo         bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [file...]",
	Short: "Run the pipeline over local files and write the dataset",
	Long: `Reads the given text, markdown, CSV or PDF files, runs the full
Evol-Instruct pipeline and writes the resulting dataset as JSON, JSONL
or CSV. With --demo the built-in sample documents are used instead.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVar(&flagTarget, "target", 0, "overall question target, 3 to 15 (default from config)")
	generateCmd.Flags().StringVar(&flagOut, "out", "", "output file (default stdout)")
	generateCmd.Flags().StringVar(&flagFormat, "format", "json", "output format (json, jsonl, csv)")
	generateCmd.Flags().Int64Var(&flagTemplateSeed, "template-seed", 0, "seed for template selection (0 = random)")
	generateCmd.Flags().BoolVar(&flagDemo, "demo", false, "use built-in sample documents")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(flagFormat)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagTemplateSeed != 0 {
		cfg.TemplateSeed = flagTemplateSeed
	}

	var docs []evol.Document
	if flagDemo {
		docs = evol.SampleDocuments()
	} else {
		if len(args) == 0 {
			return fmt.Errorf("no input files (or use --demo)")
		}
		docs, err = ingest.NormalizeFiles(args)
		if err != nil {
			return err
		}
	}

	docs, dropped := ingest.FilterDuplicates(docs)
	logger := logging.New("generate")
	if dropped > 0 {
		logger.Warn("dropped near-duplicate documents", "dropped", dropped)
	}

	backend, err := ai.NewGeminiService(cmd.Context(), "", cfg.Model, cfg.Temperature)
	if err != nil {
		return err
	}
	defer backend.Close()

	pipeline := evol.NewPipeline(cfg, backend, &evol.LogObserver{Logger: logger})
	result, err := pipeline.Run(cmd.Context(), docs, flagTarget)
	if err != nil {
		return err
	}

	if flagOut == "" {
		return export.Write(os.Stdout, result, format)
	}
	f, err := os.Create(flagOut)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := export.Write(f, result, format); err != nil {
		return err
	}
	logger.Info("dataset written", "path", flagOut, "format", format, "questions", result.TotalQuestions)
	return nil
}
