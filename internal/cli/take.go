package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"mcq-studio/internal/app"
	"mcq-studio/internal/tui"
	"mcq-studio/internal/workbook"
)

// NewTakeCmd runs a question bank as an interactive terminal quiz.
func NewTakeCmd(opts *rootOptions) *cobra.Command {
	var noColor bool
	cmd := &cobra.Command{
		Use:   "take FILE",
		Short: "Take a quiz from a workbook in the terminal",
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

			state := app.BeginLoad(app.NewState(uuid.NewString(), time.Now()))
			bank, err := workbook.NewLoader(newParser(cfg)).LoadBank(cmd.Context(), upload)
			if err != nil {
				log.Warn().Err(err).Str("file", upload.Name).Msg("workbook rejected")
				state = app.FailLoad(state, err)
			} else {
				state = app.LoadWorkbook(state, bank)
			}

			final, err := tui.Run(cmd.Context(), state, tui.Options{NoColor: noColor})
			if err != nil {
				return err
			}
			if final.Submitted && final.Result != nil {
				score := final.Result.Score
				fmt.Fprintf(cmd.OutOrStdout(), "%d/%d correct\n", score.CorrectCount, score.Total)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}
