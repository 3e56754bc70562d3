package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spigell/cv-screener/internal/screening"
)

var assistCmd = &cobra.Command{
	Use:   "assist",
	Short: "HR assistant operations that are not tied to a candidate",
}

var jobDescriptionCmd = &cobra.Command{
	Use:   "job-description",
	Short: "Generate a job description for a role",
	RunE: func(cmd *cobra.Command, _ []string) error {
		requirements, _ := cmd.Flags().GetStringSlice("requirement")
		in := screening.JobDescriptionInput{
			Title:        flagString(cmd, "title"),
			Department:   flagString(cmd, "department"),
			Requirements: requirements,
			Notes:        flagString(cmd, "notes"),
		}
		return assist(cmd, func(c *components) (any, error) {
			return c.orchestrator.GenerateJobDescription(cmd.Context(), in)
		})
	},
}

var performanceCmd = &cobra.Command{
	Use:   "performance",
	Short: "Analyze a performance review",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return assist(cmd, func(c *components) (any, error) {
			review, err := readFile(flagString(cmd, "review"), "review")
			if err != nil {
				return nil, err
			}
			return c.orchestrator.AnalyzePerformance(cmd.Context(), screening.PerformanceInput{
				EmployeeName: flagString(cmd, "name"),
				Role:         flagString(cmd, "role"),
				Review:       review,
			})
		})
	},
}

var askCmd = &cobra.Command{
	Use:   "ask QUESTION...",
	Short: "Ask the HR assistant a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := screening.HRQuestionInput{
			Question: strings.Join(args, " "),
			Context:  flagString(cmd, "context"),
		}
		return assist(cmd, func(c *components) (any, error) {
			return c.orchestrator.AskHR(cmd.Context(), in)
		})
	},
}

func init() {
	rootCmd.AddCommand(assistCmd)
	assistCmd.AddCommand(jobDescriptionCmd, performanceCmd, askCmd)

	jobDescriptionCmd.Flags().String("title", "", "job title")
	jobDescriptionCmd.Flags().String("department", "", "department")
	jobDescriptionCmd.Flags().StringSlice("requirement", nil, "a requirement, repeat for several")
	jobDescriptionCmd.Flags().String("notes", "", "free-form notes for the writer")

	performanceCmd.Flags().StringP("name", "n", "", "employee name")
	performanceCmd.Flags().String("role", "", "employee role")
	performanceCmd.Flags().String("review", "", "plain text review file")

	askCmd.Flags().String("context", "", "extra context for the question")
}

func assist(cmd *cobra.Command, call func(c *components) (any, error)) error {
	ctx, stop := signalContext()
	defer stop()
	cmd.SetContext(ctx)

	c := setup(ctx)
	defer c.Close()

	result, err := call(c)
	if err != nil {
		return fmt.Errorf("assistant request failed: %w", err)
	}

	if err := printJSON(cmd, result); err != nil {
		return fmt.Errorf("printing result: %w", err)
	}
	return nil
}
