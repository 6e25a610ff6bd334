package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"resume-analyzer-go/internal/processor"
)

func newImportCmd(opts *globalOptions) *cobra.Command {
	var source string
	var publish bool
	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Extract resumes and save them as candidates",
		Long: `Runs each file through extraction and stores the result in the local SQLite candidate database.
With --publish a resume.parsed event is sent to RabbitMQ for every saved candidate.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, cleanup, err := opts.openService(ctx, publish)
			if err != nil {
				return err
			}
			defer cleanup()

			failed := 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					cmd.PrintErrf("  %s: %v\n", path, err)
					failed++
					continue
				}
				res, err := svc.ProcessUpload(ctx, processor.UploadRequest{
					Filename:      filepath.Base(path),
					Data:          data,
					SourceChannel: source,
					SubmittedAt:   time.Now(),
				})
				if err != nil {
					reason := err.Error()
					if errors.Is(err, processor.ErrDuplicateFile) || errors.Is(err, processor.ErrDuplicateContent) {
						reason = "duplicate, skipped"
					}
					cmd.PrintErrf("  %s: %s\n", path, reason)
					failed++
					continue
				}
				c := res.Candidate
				cmd.Printf("  %s -> %s  %s  score %d\n", path, c.ID, c.FullName(), c.Score)
			}

			cmd.Printf("Imported %d of %d file(s) into %s\n", len(args)-failed, len(args), opts.cfg.SQLite.Path)
			if failed > 0 {
				return fmt.Errorf("%d file(s) failed to import", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "cli", "source channel recorded on the candidate")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish resume.parsed events to RabbitMQ")
	return cmd
}
