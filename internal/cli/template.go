package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"mcq-studio/internal/workbook"
)

// NewTemplateCmd writes the example question bank.
func NewTemplateCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an example question bank (csv or xlsx)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var write func(io.Writer) error
			switch format {
			case "csv":
				write = workbook.WriteTemplateCSV
			case "xlsx":
				write = workbook.WriteTemplateXLSX
			default:
				return fmt.Errorf("unknown format %q: use csv or xlsx", format)
			}

			if output == "" || output == "-" {
				return write(cmd.OutOrStdout())
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := write(f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "template format: csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (stdout if empty)")
	return cmd
}
