package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/siherrmann/newsgraph/model"
	"github.com/spf13/cobra"
)

var (
	ingestID       string
	ingestTitle    string
	ingestTextFile string
	ingestDryRun   bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <document.json>",
	Short: "Extract and store the graph of an annotated article",
	Long: `Reads an annotated document (sentences with tokens, dependencies, open
triples and coreference chains) and stores the extracted entities and
relationships for the article.`,
	Example: `  # Store an annotated article
  newsgraph ingest --id news-1 --title "SpaceX" article.json

  # Only print the extraction result
  newsgraph ingest --id news-1 --dry-run article.json`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var annotateCmd = &cobra.Command{
	Use:   "annotate <article.txt>",
	Short: "Annotate a plain text article with the NER model and store its graph",
	Long: `Runs the default token classification model over the article text and
stores the recognized entities. The model is downloaded on first use.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotate,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <article-id>",
	Short: "Delete a stored article and its mentions",
	Long: `Deletes the article and its mention edges. Entities and relations stay
in the graph since other articles may share them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := openNewsGraph(cmd.Context())
		if err != nil {
			return err
		}
		defer n.Close()

		err = n.DeleteArticle(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.RedString("deleted"), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(annotateCmd)
	rootCmd.AddCommand(deleteCmd)

	ingestCmd.Flags().StringVar(&ingestID, "id", "", "external article id (required)")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "article title")
	ingestCmd.Flags().StringVar(&ingestTextFile, "text-file", "", "file with the raw article text")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "print the extraction result without storing it")
	_ = ingestCmd.MarkFlagRequired("id")

	annotateCmd.Flags().StringVar(&ingestID, "id", "", "external article id (defaults to the file name)")
	annotateCmd.Flags().StringVar(&ingestTitle, "title", "", "article title (defaults to the file name)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	f, err := os.Open(filepath.Clean(args[0]))
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := model.LoadDocument(f)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	article := &model.Article{ExternalID: ingestID, Title: ingestTitle}
	if ingestTextFile != "" {
		text, err := os.ReadFile(filepath.Clean(ingestTextFile))
		if err != nil {
			return err
		}
		article.Text = string(text)
	}

	if ingestDryRun {
		n := newDryRunNewsGraph()
		return printJSON(cmd, n.Process(article, doc))
	}

	n, err := openNewsGraph(cmd.Context())
	if err != nil {
		return err
	}
	defer n.Close()

	report, err := n.ProcessAndPersist(cmd.Context(), article, doc)
	if err != nil {
		return err
	}
	printReport(cmd, report)
	return nil
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	article, err := model.NewArticleFromFile(args[0], nil)
	if err != nil {
		return err
	}
	if ingestID != "" {
		article.ExternalID = ingestID
	}
	if ingestTitle != "" {
		article.Title = ingestTitle
	}

	n, err := openNewsGraph(cmd.Context())
	if err != nil {
		return err
	}
	defer n.Close()

	if err := n.UseDefaultAnnotator(); err != nil {
		return err
	}

	report, err := n.AnnotateAndPersist(cmd.Context(), article)
	if err != nil {
		return err
	}
	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report *model.PersistReport) {
	out := cmd.OutOrStdout()
	failed := report.Failed()

	fmt.Fprintf(out, "%s %s (%s)\n", color.GreenString("Stored"), report.Article.ExternalID, report.Article.ID)
	fmt.Fprintf(out, "  entities:  %d\n", report.Entities)
	fmt.Fprintf(out, "  mentions:  %d\n", report.Written(model.EdgeKindMention))
	fmt.Fprintf(out, "  relations: %d\n", report.Written(model.EdgeKindRelation))
	if len(failed) == 0 {
		return
	}

	fmt.Fprintf(out, "  %s %d\n", color.YellowString("failed:"), len(failed))
	for _, o := range failed {
		fmt.Fprintf(out, "    %s %s -[%s]-> %s: %v\n", o.Kind, o.Source, o.Type, o.Target, o.Err)
	}
}
