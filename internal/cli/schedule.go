package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"phiz-quiz-service/internal/clock"
	"phiz-quiz-service/internal/config"
	"phiz-quiz-service/internal/reminder"
)

// NewScheduleCmd prints when a user's reminders would fire next.
func NewScheduleCmd(configPath *string) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "schedule <userID>",
		Short: "Show the next study reminder, weekly report and inactivity check for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("parse --at: %w", err)
				}
				now = parsed
			}
			return runSchedule(cmd, *configPath, args[0], now)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "plan as of this RFC3339 time instead of now")
	return cmd
}

func runSchedule(cmd *cobra.Command, configPath, userID string, now time.Time) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// a frozen clock plans without ever firing
	c, err := buildComponents(ctx, cfg, clock.NewFake(now))
	if err != nil {
		return err
	}
	defer c.close()

	if err := c.reminders.Schedule(ctx, userID); err != nil {
		return err
	}
	planned := c.reminders.Planned(userID)
	jobs := make([]string, 0, len(planned))
	for job := range planned {
		jobs = append(jobs, string(job))
	}
	sort.Strings(jobs)

	out := cmd.OutOrStdout()
	for _, job := range jobs {
		fmt.Fprintf(out, "%-18s %s\n", job, planned[reminder.Job(job)].Format(time.RFC3339))
	}
	return nil
}
