package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/advisory-guard/internal/knowledge"
)

var (
	kbRelatedLimit int
	kbTag          string
	kbCategory     string
	kbImportFile   string
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Inspect and seed the knowledge base",
}

var kbGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print one knowledge-base document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := knowledge.Open(ctx, cfg.Knowledge)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		doc, err := store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), doc)
	},
}

var kbRelatedCmd = &cobra.Command{
	Use:   "related <id>",
	Short: "List documents related to a document, most similar first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := knowledge.Open(ctx, cfg.Knowledge)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		ranked, err := knowledge.Related(ctx, store, args[0], kbRelatedLimit)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), ranked)
	},
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List knowledge-base documents",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		store, err := knowledge.Open(ctx, cfg.Knowledge)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		docs, err := store.List(ctx)
		if err != nil {
			return err
		}
		if kbTag != "" {
			docs = knowledge.FilterByTag(docs, kbTag)
		}
		if kbCategory != "" {
			docs = knowledge.FilterByCategory(docs, kbCategory)
		}
		return printJSON(cmd.OutOrStdout(), docs)
	},
}

var kbImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load documents from a YAML file into a sqlite or postgres knowledge base",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("kb-import"); err != nil {
			return err
		}
		ctx := cmd.Context()

		docs, err := knowledge.LoadFile(kbImportFile)
		if err != nil {
			return err
		}

		store, err := knowledge.Open(ctx, cfg.Knowledge)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		w, ok := store.(knowledge.Writer)
		if !ok {
			return eris.Errorf("knowledge driver %q is read-only", cfg.Knowledge.Driver)
		}
		if err := w.Migrate(ctx); err != nil {
			return err
		}
		n, err := w.Upsert(ctx, docs)
		if err != nil {
			return eris.Wrap(err, "import documents")
		}

		zap.L().Info("kb import complete",
			zap.Int("documents", n),
			zap.String("file", kbImportFile),
			zap.String("driver", cfg.Knowledge.Driver),
		)
		return nil
	},
}

func init() {
	kbRelatedCmd.Flags().IntVar(&kbRelatedLimit, "limit", 5, "max related documents (0 = all)")
	kbListCmd.Flags().StringVar(&kbTag, "tag", "", "only documents with this tag")
	kbListCmd.Flags().StringVar(&kbCategory, "category", "", "only documents in this category")
	kbImportCmd.Flags().StringVar(&kbImportFile, "file", "", "path to YAML document file (required)")
	_ = kbImportCmd.MarkFlagRequired("file")

	kbCmd.AddCommand(kbGetCmd, kbRelatedCmd, kbListCmd, kbImportCmd)
	rootCmd.AddCommand(kbCmd)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode output")
}
