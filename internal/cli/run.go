package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewRunCmd создаёт группу команд для управления runs.
func NewRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Manage runs",
	}

	cmd.AddCommand(
		newRunListCmd(clientFn, outputFn),
		newRunStartCmd(clientFn, outputFn),
		newRunShowCmd(clientFn, outputFn),
		newRunCancelCmd(clientFn, outputFn),
		newRunDownloadCmd(clientFn, outputFn),
	)

	return cmd
}

func newRunListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var workflowID string
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			runs, err := client.ListRuns(ListRunsOpts{
				WorkflowID: workflowID,
				Status:     status,
				Limit:      limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "WORKFLOW", "VERSION", "STATUS", "CREATED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{r.ID, r.WorkflowID, strconv.Itoa(r.Version), r.Status, r.CreatedAt}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&workflowID, "workflow", "", "Filter by workflow ID")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING/RUNNING/SUCCEEDED/FAILED/CANCELLED)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of runs")

	return cmd
}

func newRunStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var version int
	var datasets []string
	var idempotencyKey string

	cmd := &cobra.Command{
		Use:   "start WORKFLOW_ID",
		Short: "Start a workflow run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := CreateRunRequest{IdempotencyKey: idempotencyKey}
			if cmd.Flags().Changed("version") {
				req.Version = &version
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

			run, err := client.CreateRun(args[0], req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Run started: %s", run.ID))
			out.Print(
				[]string{"ID", "WORKFLOW", "VERSION", "STATUS", "CREATED"},
				[][]string{{run.ID, run.WorkflowID, strconv.Itoa(run.Version), run.Status, run.CreatedAt}},
				run,
			)
			return nil
		},
	}

	cmd.Flags().IntVar(&version, "version", 0, "Workflow version (default: latest)")
	cmd.Flags().StringArrayVar(&datasets, "dataset", nil, "Dataset remapping OLD_ID=NEW_ID (repeatable)")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key")

	return cmd
}

func newRunShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show run details with node results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.GetRun(args[0])
			if err != nil {
				return err
			}

			headers := []string{"NODE", "STATUS", "ROWS", "ERROR"}
			rows := make([][]string, 0, len(run.NodeResults))
			for nodeID, nr := range run.NodeResults {
				status, _ := nr["status"].(string)
				nodeErr, _ := nr["error"].(string)
				rowCount := ""
				if n, ok := nr["rows"].(float64); ok {
					rowCount = strconv.Itoa(int(n))
				}
				rows = append(rows, []string{nodeID, status, rowCount, nodeErr})
			}

			if run.Error != "" {
				out.Error(run.Error)
			}
			out.Print(headers, rows, run)
			return nil
		},
	}
}

func newRunCancelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a pending or running run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.CancelRun(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Run cancelled: %s (status: %s)", run.ID, run.Status))
			return nil
		},
	}
}

func newRunDownloadCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download RUN_ID OUTPUT_NAME",
		Short: "Download a run output file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.GetRun(args[0])
			if err != nil {
				return err
			}

			filename, ok := run.Outputs[args[1]]
			if !ok {
				return fmt.Errorf("run has no output %q", args[1])
			}

			localPath := output
			if localPath == "" {
				localPath = filename
			}

			if err := client.DownloadResult(filename, localPath); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Saved to %s", localPath))
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "Local file path (default: server filename)")

	return cmd
}

// splitPair разбирает строку вида "key=value".
func splitPair(s string) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], i > 0 && i < len(s)-1
		}
	}
	return "", "", false
}
