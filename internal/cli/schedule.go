package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewScheduleCmd создаёт группу команд для управления schedules.
func NewScheduleCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage schedules",
	}

	cmd.AddCommand(
		newScheduleListCmd(clientFn, outputFn),
		newScheduleCreateCmd(clientFn, outputFn),
		newScheduleShowCmd(clientFn, outputFn),
		newScheduleUpdateCmd(clientFn, outputFn),
		newScheduleDeleteCmd(clientFn, outputFn),
		newScheduleEnableCmd(clientFn, outputFn),
		newScheduleDisableCmd(clientFn, outputFn),
	)

	return cmd
}

func scheduleRow(s *ScheduleResponse) []string {
	expr := s.CronExpr
	if expr == "" && s.IntervalSec > 0 {
		expr = fmt.Sprintf("every %ds", s.IntervalSec)
	}
	return []string{s.ID, s.WorkflowID, s.Name, expr, strconv.FormatBool(s.Enabled), s.NextDueAt}
}

var scheduleHeaders = []string{"ID", "WORKFLOW", "NAME", "SCHEDULE", "ENABLED", "NEXT_DUE"}

func newScheduleListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var workflowID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			schedules, err := client.ListSchedules(workflowID)
			if err != nil {
				return err
			}

			rows := make([][]string, len(schedules))
			for i := range schedules {
				rows[i] = scheduleRow(&schedules[i])
			}

			out.Print(scheduleHeaders, rows, schedules)
			return nil
		},
	}

	cmd.Flags().StringVar(&workflowID, "workflow", "", "Filter by workflow ID")

	return cmd
}

func newScheduleCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string
	var cronExpr string
	var intervalSec int
	var timezone string
	var disabled bool
	var datasets []string

	cmd := &cobra.Command{
		Use:   "create WORKFLOW_ID",
		Short: "Create a schedule for a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := CreateScheduleRequest{
				Name:        name,
				CronExpr:    cronExpr,
				IntervalSec: intervalSec,
				Timezone:    timezone,
				Enabled:     !disabled,
			}
			if len(datasets) > 0 {
				req.DatasetMap = make(map[string]string, len(datasets))
				for _, pair := range datasets {
					from, to, ok := splitPair(pair)
					if !ok {
						return fmt.Errorf("invalid --dataset value %q, expected OLD_ID=NEW_ID", pair)
					}
					req.DatasetMap[from] = to
				}
			}

			sched, err := client.CreateSchedule(args[0], req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule created: %s", sched.ID))
			out.Print(scheduleHeaders, [][]string{scheduleRow(sched)}, sched)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Schedule name")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression, e.g. \"0 9 * * *\"")
	cmd.Flags().IntVar(&intervalSec, "interval", 0, "Interval in seconds")
	cmd.Flags().StringVar(&timezone, "timezone", "", "Timezone (default: UTC)")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Create in disabled state")
	cmd.Flags().StringArrayVar(&datasets, "dataset", nil, "Dataset remapping OLD_ID=NEW_ID (repeatable)")

	return cmd
}

func newScheduleShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show schedule details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			sched, err := client.GetSchedule(args[0])
			if err != nil {
				return err
			}

			out.Print(scheduleHeaders, [][]string{scheduleRow(sched)}, sched)
			return nil
		},
	}
}

func newScheduleUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string
	var cronExpr string
	var intervalSec int
	var timezone string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := UpdateScheduleRequest{}
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("cron") {
				req.CronExpr = &cronExpr
			}
			if cmd.Flags().Changed("interval") {
				req.IntervalSec = &intervalSec
			}
			if cmd.Flags().Changed("timezone") {
				req.Timezone = &timezone
			}

			sched, err := client.UpdateSchedule(args[0], req)
			if err != nil {
				return err
			}

			out.Success("Schedule updated")
			out.Print(scheduleHeaders, [][]string{scheduleRow(sched)}, sched)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New schedule name")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "New cron expression")
	cmd.Flags().IntVar(&intervalSec, "interval", 0, "New interval in seconds")
	cmd.Flags().StringVar(&timezone, "timezone", "", "New timezone")

	return cmd
}

func newScheduleDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteSchedule(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule deleted: %s", args[0]))
			return nil
		},
	}
}

func newScheduleEnableCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "enable ID",
		Short: "Enable a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			sched, err := client.EnableSchedule(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule enabled, next due: %s", sched.NextDueAt))
			return nil
		},
	}
}

func newScheduleDisableCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "disable ID",
		Short: "Disable a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if _, err := client.DisableSchedule(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule disabled: %s", args[0]))
			return nil
		},
	}
}
