package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/screening"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen one resume against a job description",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return screen(cmd)
	},
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringP("resume", "r", "", "plain text resume file")
	screenCmd.Flags().StringP("job", "J", "", "plain text job description file")
	screenCmd.Flags().StringP("name", "n", "", "candidate name")
	screenCmd.Flags().String("email", "", "candidate email")
	screenCmd.Flags().String("candidate", "", "id of an existing candidate to append the result to")
}

func screen(cmd *cobra.Command) error {
	ctx, stop := signalContext()
	defer stop()

	c := setup(ctx)
	defer c.Close()

	resume, err := readFile(flagString(cmd, "resume"), "resume")
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	job, err := readFile(flagString(cmd, "job"), "job description")
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	outcome, err := c.service.ScreenResume(ctx, screening.ScreeningInput{
		ResumeText:     resume,
		JobDescription: job,
		CandidateName:  flagString(cmd, "name"),
		CandidateID:    flagString(cmd, "candidate"),
		Email:          flagString(cmd, "email"),
	})
	if err != nil {
		return fmt.Errorf("screening failed: %w", err)
	}

	c.logger.Info("resume screened",
		zap.String("candidate_id", outcome.Candidate.ID),
		zap.Int("score", outcome.Result.Score),
		zap.String("provenance", string(outcome.Result.Provenance)),
	)

	if err := printJSON(cmd, outcome); err != nil {
		return fmt.Errorf("printing result: %w", err)
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func flagString(cmd *cobra.Command, name string) string {
	value, _ := cmd.Flags().GetString(name)
	return value
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
