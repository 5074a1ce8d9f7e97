package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// NewWorkflowCmd создаёт группу команд для управления workflows.
func NewWorkflowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Manage workflows",
	}

	cmd.AddCommand(
		newWorkflowListCmd(clientFn, outputFn),
		newWorkflowCreateCmd(clientFn, outputFn),
		newWorkflowShowCmd(clientFn, outputFn),
		newWorkflowUpdateCmd(clientFn, outputFn),
		newWorkflowDeleteCmd(clientFn, outputFn),
		newWorkflowVersionsCmd(clientFn, outputFn),
		newWorkflowPublishCmd(clientFn, outputFn),
	)

	return cmd
}

func newWorkflowListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			workflows, err := client.ListWorkflows()
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "ACTIVE", "CREATED"}
			rows := make([][]string, len(workflows))
			for i, wf := range workflows {
				rows[i] = []string{wf.ID, wf.Name, strconv.FormatBool(wf.IsActive), wf.CreatedAt}
			}

			out.Print(headers, rows, workflows)
			return nil
		},
	}
}

func newWorkflowCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string
	var description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			wf, err := client.CreateWorkflow(CreateWorkflowRequest{
				Name:        name,
				Description: description,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Workflow created: %s", wf.ID))
			out.Print(
				[]string{"ID", "NAME", "ACTIVE", "CREATED"},
				[][]string{{wf.ID, wf.Name, strconv.FormatBool(wf.IsActive), wf.CreatedAt}},
				wf,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Workflow name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Workflow description")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newWorkflowShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show workflow details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			wf, err := client.GetWorkflow(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "NAME", "ACTIVE", "CREATED"},
				[][]string{{wf.ID, wf.Name, strconv.FormatBool(wf.IsActive), wf.CreatedAt}},
				wf,
			)
			return nil
		},
	}
}

func newWorkflowUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string
	var description string
	var active string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := UpdateWorkflowRequest{}
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}
			if cmd.Flags().Changed("active") {
				b, err := strconv.ParseBool(active)
				if err != nil {
					return fmt.Errorf("invalid value for --active: %s", active)
				}
				req.IsActive = &b
			}

			wf, err := client.UpdateWorkflow(args[0], req)
			if err != nil {
				return err
			}

			out.Success("Workflow updated")
			out.Print(
				[]string{"ID", "NAME", "ACTIVE", "CREATED"},
				[][]string{{wf.ID, wf.Name, strconv.FormatBool(wf.IsActive), wf.CreatedAt}},
				wf,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New workflow name")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&active, "active", "", "Set active status (true/false)")

	return cmd
}

func newWorkflowDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteWorkflow(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Workflow deleted: %s", args[0]))
			return nil
		},
	}
}

func newWorkflowVersionsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "versions WORKFLOW_ID",
		Short: "List workflow versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			versions, err := client.ListVersions(args[0])
			if err != nil {
				return err
			}

			headers := []string{"WORKFLOW_ID", "VERSION", "CREATED"}
			rows := make([][]string, len(versions))
			for i, v := range versions {
				rows[i] = []string{v.WorkflowID, strconv.Itoa(v.Version), v.CreatedAt}
			}

			out.Print(headers, rows, versions)
			return nil
		},
	}
}

func newWorkflowPublishCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var graphFile string

	cmd := &cobra.Command{
		Use:   "publish WORKFLOW_ID",
		Short: "Publish a new workflow version from graph file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			data, err := os.ReadFile(graphFile)
			if err != nil {
				return fmt.Errorf("failed to read graph file: %w", err)
			}

			// Валидируем что это валидный JSON
			if !json.Valid(data) {
				return fmt.Errorf("graph file is not valid JSON")
			}

			version, err := client.CreateVersion(args[0], json.RawMessage(data))
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Version %d published for workflow %s", version.Version, version.WorkflowID))
			out.Print(
				[]string{"WORKFLOW_ID", "VERSION", "CREATED"},
				[][]string{{version.WorkflowID, strconv.Itoa(version.Version), version.CreatedAt}},
				version,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&graphFile, "graph-file", "", "Path to graph JSON file (required)")
	cmd.MarkFlagRequired("graph-file")

	return cmd
}
