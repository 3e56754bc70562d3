package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/candidates"
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "Inspect stored candidates",
}

var candidatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List candidates with their latest score",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return listCandidates(cmd)
	},
}

func init() {
	rootCmd.AddCommand(candidatesCmd)
	candidatesCmd.AddCommand(candidatesListCmd)

	candidatesListCmd.Flags().StringP("query", "q", "", "match name or email")
	candidatesListCmd.Flags().Int("min-score", 0, "only candidates whose latest score is at least this")
	candidatesListCmd.Flags().Int("limit", 0, "maximum number of candidates")
	candidatesListCmd.Flags().Bool("full", false, "print full candidate records as json")
}

func listCandidates(cmd *cobra.Command) error {
	ctx, stop := signalContext()
	defer stop()

	c := setup(ctx)
	defer c.Close()

	minScore, _ := cmd.Flags().GetInt("min-score")
	limit, _ := cmd.Flags().GetInt("limit")

	list, err := c.store.List(ctx, candidates.Filter{
		Query:    flagString(cmd, "query"),
		MinScore: minScore,
		Limit:    limit,
	})
	if err != nil {
		return fmt.Errorf("listing candidates: %w", err)
	}

	if full, _ := cmd.Flags().GetBool("full"); full {
		if err := printJSON(cmd, list); err != nil {
			return fmt.Errorf("printing candidates: %w", err)
		}
		return nil
	}

	out := cmd.OutOrStdout()
	for _, cand := range list {
		score := "-"
		if s, ok := cand.Score(); ok {
			score = fmt.Sprint(s)
		}
		fmt.Fprintf(out, "%s  %-30s %-30s %3s  screenings: %d\n", cand.ID, cand.Name, cand.Email, score, len(cand.History))
	}
	c.logger.Info("listed candidates", zap.Int("count", len(list)))
	return nil
}
