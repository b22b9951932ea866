package main

import (
	"fmt"

	"github.com/siherrmann/newsgraph/core/graph"
	"github.com/siherrmann/newsgraph/model"
	"github.com/spf13/cobra"
)

var (
	relatedLimit   int
	maxHops        int
	listLimit      int
	searchTerm     string
	entityTypeName string
)

var graphCmd = &cobra.Command{
	Use:   "graph <article-id>",
	Short: "Print the stored graph of an article as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := openNewsGraph(cmd.Context())
		if err != nil {
			return err
		}
		defer n.Close()

		articleGraph, err := n.GetArticleGraph(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, articleGraph)
	},
}

var relatedCmd = &cobra.Command{
	Use:   "related <article-id>",
	Short: "List the articles sharing entities with an article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := openNewsGraph(cmd.Context())
		if err != nil {
			return err
		}
		defer n.Close()

		related, err := n.GetRelatedArticles(cmd.Context(), args[0], relatedLimit)
		if err != nil {
			return err
		}
		return printJSON(cmd, related)
	},
}

var neighborhoodCmd = &cobra.Command{
	Use:   "neighborhood <article-id>",
	Short: "List the articles reachable over shared entities",
	Example: `  # Articles at most two shared-entity hops away
  newsgraph neighborhood --hops 2 news-1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := openNewsGraph(cmd.Context())
		if err != nil {
			return err
		}
		defer n.Close()

		reached, err := n.Query.Neighborhood(cmd.Context(), args[0], maxHops)
		if err != nil {
			return err
		}

		for _, r := range reached {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", r.Distance, r.ExternalID)
		}
		return nil
	},
}

var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "List the stored articles, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := openNewsGraph(cmd.Context())
		if err != nil {
			return err
		}
		defer n.Close()

		articles, err := n.ListArticles(cmd.Context(), listLimit)
		if err != nil {
			return err
		}

		for _, a := range articles {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", a.ExternalID, a.Title)
		}
		return nil
	},
}

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "Search stored entities by name and type",
	Example: `  # Organizations with "space" in their name
  newsgraph entities --search space --type organization`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var entityType *model.EntityType
		if entityTypeName != "" {
			t, err := model.ParseEntityType(entityTypeName)
			if err != nil {
				return err
			}
			entityType = &t
		}

		n, err := openNewsGraph(cmd.Context())
		if err != nil {
			return err
		}
		defer n.Close()

		entities, err := n.SearchEntities(cmd.Context(), searchTerm, entityType, listLimit)
		if err != nil {
			return err
		}

		for _, e := range entities {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", e.Type, e.Name)
		}
		return nil
	},
}

var entityCmd = &cobra.Command{
	Use:   "entity <name>",
	Short: "Print the relations and mentioning articles of an entity as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entityType, err := model.ParseEntityType(entityTypeName)
		if err != nil {
			return err
		}

		n, err := openNewsGraph(cmd.Context())
		if err != nil {
			return err
		}
		defer n.Close()

		entityGraph, err := n.GetEntityGraph(cmd.Context(), args[0], entityType)
		if err != nil {
			return err
		}
		return printJSON(cmd, entityGraph)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print graph statistics as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := openNewsGraph(cmd.Context())
		if err != nil {
			return err
		}
		defer n.Close()

		stats, err := n.Statistics(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, stats)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(relatedCmd)
	rootCmd.AddCommand(neighborhoodCmd)
	rootCmd.AddCommand(articlesCmd)
	rootCmd.AddCommand(entitiesCmd)
	rootCmd.AddCommand(entityCmd)
	rootCmd.AddCommand(statsCmd)

	relatedCmd.Flags().IntVarP(&relatedLimit, "limit", "l", model.DefaultProcessConfig().RelatedLimit, "maximum number of articles")
	neighborhoodCmd.Flags().IntVar(&maxHops, "hops", 1, "maximum number of shared-entity hops")
	articlesCmd.Flags().IntVarP(&listLimit, "limit", "l", graph.ListLimit, "maximum number of articles")
	entitiesCmd.Flags().IntVarP(&listLimit, "limit", "l", graph.ListLimit, "maximum number of entities")
	entitiesCmd.Flags().StringVarP(&searchTerm, "search", "s", "", "name substring")
	entitiesCmd.Flags().StringVarP(&entityTypeName, "type", "t", "", "entity type, e.g. person or location")
	entityCmd.Flags().StringVarP(&entityTypeName, "type", "t", "", "entity type, e.g. person or location")
	_ = entityCmd.MarkFlagRequired("type")
}
