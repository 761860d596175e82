package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"audiosketch/internal/services/openai"
	"audiosketch/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags projectFlags
	var projectID string
	var audioPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the generation pipeline for a narration",
		Long: "Run transcription, prompt derivation, summarization and image generation.\n" +
			"Completed stages are skipped, so re-running a failed project resumes where it stopped.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID = strings.TrimSpace(projectID)
			audioPath = strings.TrimSpace(audioPath)
			if projectID == "" && audioPath == "" {
				return fmt.Errorf("either --audio or --project is required")
			}
			mgr, _, err := ctx.manager(cmd, true)
			if err != nil {
				return err
			}

			var audio *openai.Audio
			if audioPath != "" {
				file, err := os.Open(audioPath)
				if err != nil {
					return fmt.Errorf("open audio: %w", err)
				}
				defer file.Close()
				audio = &openai.Audio{Name: filepath.Base(audioPath), Reader: file}
			}

			fields := flags.fields()
			fields.ProjectID = projectID
			proj, err := mgr.Submit(cmd.Context(), workflow.Submission{Fields: fields, Audio: audio})
			if proj.ID != "" && !ctx.jsonOutput() {
				renderProject(cmd, proj, mgr.Store().Dir(proj.ID))
			}
			if err != nil {
				if proj.ID != "" {
					return fmt.Errorf("project %s: %w (rerun with --project %s to resume)", proj.ID, err, proj.ID)
				}
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, proj)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Existing project id to resume")
	cmd.Flags().StringVarP(&audioPath, "audio", "a", "", "Narration audio file (mp3, m4a, wav, ...)")
	return cmd
}
