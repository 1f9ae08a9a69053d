package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"mcq-studio/internal/domain"
	"mcq-studio/internal/workbook"
)

// NewCheckCmd validates a workbook and prints a summary of its questions.
func NewCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Validate a question bank without starting a quiz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			upload, err := readUpload(args[0])
			if err != nil {
				return err
			}
			bank, err := workbook.NewLoader(newParser(cfg)).LoadBank(cmd.Context(), upload)
			if err != nil {
				log.Debug().Err(err).Str("file", upload.Name).Msg("check failed")
				return err
			}

			multi := 0
			for _, q := range bank.Questions {
				if q.AllowsMultiple {
					multi++
				}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d questions (%d multi-answer)\n", upload.Name, len(bank.Questions), multi)
			for _, q := range bank.Questions {
				fmt.Fprintf(out, "  %s. %s [%d options, answer %s]\n", q.ID, q.Text, len(q.Options), keysString(q.CorrectKeys))
			}
			return nil
		},
	}
}

func readUpload(path string) (domain.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("read %s: %w", path, err)
	}
	return domain.Upload{Name: filepath.Base(path), Data: data}, nil
}

func keysString(keys []domain.OptionKey) string {
	s := ""
	for i, k := range keys {
		if i > 0 {
			s += ","
		}
		s += string(k)
	}
	return s
}
