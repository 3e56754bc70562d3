package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/pipeline"
	"github.com/spigell/cv-screener/internal/ranking"
	"github.com/spigell/cv-screener/internal/screening"
)

const (
	PromptShowRanking  = "Show ranking"
	PromptReportByTier = "Report by tier"
	PromptDumpToFile   = "Dump ranking to file"
	PromptExit         = "Exit"
)

var errExit = errors.New("exit requested")

var batchPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptShowRanking, PromptReportByTier, PromptDumpToFile, PromptExit},
}

var batchCmd = &cobra.Command{
	Use:   "batch --job FILE RESUME...",
	Short: "Screen several resumes concurrently and rank the candidates",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return batch(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringP("job", "J", "", "plain text job description file")
	batchCmd.Flags().BoolP("auto-approve", "y", false, "print the ranking and exit without asking")
}

func batch(cmd *cobra.Command, files []string) error {
	ctx, stop := signalContext()
	defer stop()

	c := setup(ctx)
	defer c.Close()

	job, err := readFile(flagString(cmd, "job"), "job description")
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	inputs := make([]screening.ScreeningInput, 0, len(files))
	for _, file := range files {
		resume, err := readFile(file, "resume")
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		inputs = append(inputs, screening.ScreeningInput{
			ResumeText:     resume,
			JobDescription: job,
			CandidateName:  candidateNameFromFile(file),
		})
	}

	c.logger.Info("starting the batch", zap.Int("resumes", len(inputs)), zap.Int("workers", c.service.Workers()))

	outcomes, err := c.service.ScreenBatch(ctx, inputs)
	if err != nil {
		if len(pipeline.ItemErrors(err)) == 0 {
			return fmt.Errorf("batch screening failed: %w", err)
		}
		c.logger.Warn("some results were not stored, ranking the rest", zap.Error(err))
	}

	entries := make([]ranking.Entry, 0, len(outcomes))
	fallbacks := 0
	for _, o := range outcomes {
		entries = append(entries, ranking.Entry{CandidateID: o.Candidate.ID, Name: o.Candidate.Name, Result: o.Result})
		if o.Result.Provenance == screening.ProvenanceFallback {
			fallbacks++
		}
	}
	ranked := ranking.Rank(entries)

	c.logger.Info("batch finished",
		zap.Int("high", ranked.Counts.High),
		zap.Int("good", ranked.Counts.Good),
		zap.Int("other", ranked.Counts.Other),
		zap.Int("fallback", fallbacks),
	)

	if autoApprove, _ := cmd.Flags().GetBool("auto-approve"); autoApprove {
		printRanking(cmd, ranked)
		return nil
	}

	for {
		_, action, err := batchPrompt.Run()
		if err != nil {
			return fmt.Errorf("exiting: %w", err)
		}

		if err := handleBatchAction(cmd, action, ranked, c.logger); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			return fmt.Errorf("exiting: %w", err)
		}
	}
}

func handleBatchAction(cmd *cobra.Command, action string, ranked ranking.Ranking, lg *zap.Logger) error {
	switch action {
	case PromptShowRanking:
		printRanking(cmd, ranked)
		return nil
	case PromptReportByTier:
		fmt.Fprint(cmd.OutOrStdout(), ranked.Report())
		return nil
	case PromptDumpToFile:
		filename, err := ranked.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump ranking to file: %w", err)
		}
		lg.Info("dumping ranking to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		lg.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func printRanking(cmd *cobra.Command, ranked ranking.Ranking) {
	out := cmd.OutOrStdout()
	for _, item := range ranked.Items {
		fmt.Fprintf(out, "%2d. %-30s %3d  %-6s %-13s %s\n",
			item.Position, item.Name, item.Result.Score, item.Tier, item.Result.Recommendation, item.Result.Provenance)
	}
	fmt.Fprintf(out, "total: %d (high %d, good %d, other %d)\n",
		ranked.Counts.Total(), ranked.Counts.High, ranked.Counts.Good, ranked.Counts.Other)
}

// candidateNameFromFile turns "jane_doe.txt" into "jane doe".
func candidateNameFromFile(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.Join(strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' '
	}), " ")
}
