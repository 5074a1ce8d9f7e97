package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewDatasetCmd создаёт группу команд для управления датасетами.
func NewDatasetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Manage datasets",
	}

	cmd.AddCommand(
		newDatasetListCmd(clientFn, outputFn),
		newDatasetUploadCmd(clientFn, outputFn),
		newDatasetShowCmd(clientFn, outputFn),
		newDatasetPreviewCmd(clientFn, outputFn),
		newDatasetDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

func newDatasetListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			datasets, err := client.ListDatasets()
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "KIND", "SHEETS", "CREATED"}
			rows := make([][]string, len(datasets))
			for i, d := range datasets {
				rows[i] = []string{d.ID, d.OriginalName, d.Kind, strconv.Itoa(len(d.Sheets)), d.CreatedAt}
			}

			out.Print(headers, rows, datasets)
			return nil
		},
	}
}

func newDatasetUploadCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload an xlsx or csv file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			d, err := client.UploadDataset(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Dataset uploaded: %s", d.ID))
			out.Print(
				[]string{"ID", "NAME", "KIND", "SHEETS", "CREATED"},
				[][]string{{d.ID, d.OriginalName, d.Kind, strconv.Itoa(len(d.Sheets)), d.CreatedAt}},
				d,
			)
			return nil
		},
	}
}

func newDatasetShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show dataset details with sheet schemas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			d, err := client.GetDataset(args[0])
			if err != nil {
				return err
			}

			headers := []string{"SHEET", "COLUMNS", "ROWS"}
			rows := make([][]string, len(d.Sheets))
			for i, s := range d.Sheets {
				rows[i] = []string{s.Name, strconv.Itoa(len(s.Columns)), strconv.Itoa(s.RowCount)}
			}

			out.Print(headers, rows, d)
			return nil
		},
	}
}

func newDatasetPreviewCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var sheet string
	var rows int

	cmd := &cobra.Command{
		Use:   "preview ID",
		Short: "Show first rows of a dataset sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			p, err := client.PreviewDataset(args[0], sheet, rows)
			if err != nil {
				return err
			}

			headers := make([]string, len(p.Columns))
			for i, c := range p.Columns {
				if name, ok := c["name"].(string); ok {
					headers[i] = name
				}
			}

			tableRows := make([][]string, len(p.Rows))
			for i, rec := range p.Rows {
				row := make([]string, len(headers))
				for j, h := range headers {
					if v, ok := rec[h]; ok && v != nil {
						row[j] = fmt.Sprintf("%v", v)
					}
				}
				tableRows[i] = row
			}

			out.Print(headers, tableRows, p)
			return nil
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet name (default: first sheet)")
	cmd.Flags().IntVar(&rows, "rows", 10, "Number of rows to show")

	return cmd
}

func newDatasetDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteDataset(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Dataset deleted: %s", args[0]))
			return nil
		},
	}
}
