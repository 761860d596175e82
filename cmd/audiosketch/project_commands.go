package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"audiosketch/internal/project"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Create and inspect projects",
	}
	cmd.AddCommand(newProjectCreateCommand(ctx))
	cmd.AddCommand(newProjectListCommand(ctx))
	cmd.AddCommand(newProjectShowCommand(ctx))
	return cmd
}

type projectFlags struct {
	promptCount int
	context     string
	style       string
	model       string
}

func (f *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.promptCount, "prompts", "n", 1, "Number of illustration prompts to derive")
	cmd.Flags().StringVar(&f.context, "context", "", "Context hint for prompt derivation, e.g. \"a fantasy tale\"")
	cmd.Flags().StringVar(&f.style, "style", "", "Art style applied to every image")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "Image model (defaults to images.default_model)")
}

func (f *projectFlags) fields() project.Fields {
	return project.Fields{
		PromptCount: f.promptCount,
		Context:     f.context,
		Style:       f.style,
		ImageModel:  f.model,
	}
}

func newProjectCreateCommand(ctx *commandContext) *cobra.Command {
	var flags projectFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := ctx.manager(cmd, false)
			if err != nil {
				return err
			}
			proj, err := mgr.Create(flags.fields())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, project.Summarize(proj))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s, %d prompts)\n", proj.ID, proj.ImageModel, proj.PromptCount)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newProjectListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored projects",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := ctx.manager(cmd, false)
			if err != nil {
				return err
			}
			summaries, err := mgr.List()
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				if summaries == nil {
					summaries = []project.Summary{}
				}
				return writeJSON(cmd, summaries)
			}
			if len(summaries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects yet")
				return nil
			}
			rows := make([][]string, 0, len(summaries))
			for _, s := range summaries {
				rows = append(rows, []string{
					s.ID,
					s.Name,
					s.ImageModel,
					fmt.Sprintf("%d/%d", s.Images, s.Prompts),
					yesNo(s.Complete),
					strings.Join(s.CompletedActions, ", "),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
				{Title: "ID"},
				{Title: "Name", Width: 40},
				{Title: "Model"},
				{Title: "Images", Right: true},
				{Title: "Complete"},
				{Title: "Actions"},
			}, rows))
			return nil
		},
	}
}

func newProjectShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project's transcription, prompts and images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := exactlyOneProjectID(args)
			if err != nil {
				return err
			}
			mgr, _, err := ctx.manager(cmd, false)
			if err != nil {
				return err
			}
			proj, err := mgr.Get(id)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, proj)
			}
			renderProject(cmd, proj, mgr.Store().Dir(proj.ID))
			return nil
		},
	}
}

func renderProject(cmd *cobra.Command, proj project.Project, dir string) {
	out := cmd.OutOrStdout()
	for _, line := range renderHeading(proj.Name(), isTerminal(out)) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "Directory:   %s\n", dir)
	fmt.Fprintf(out, "Model:       %s\n", proj.ImageModel)
	if proj.Style != "" {
		fmt.Fprintf(out, "Style:       %s\n", proj.Style)
	}
	if proj.Context != "" {
		fmt.Fprintf(out, "Context:     %s\n", proj.Context)
	}
	fmt.Fprintf(out, "Complete:    %s\n", yesNo(proj.Complete()))
	if proj.Summary != "" {
		fmt.Fprintf(out, "Summary:     %s\n", proj.Summary)
	}
	if len(proj.Prompts) == 0 {
		return
	}
	rows := make([][]string, 0, len(proj.Prompts))
	for i, prompt := range proj.Prompts {
		file := "-"
		if i < len(proj.Images) {
			file = proj.Images[i].Path
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), prompt, file})
	}
	fmt.Fprintln(out, renderTable([]column{
		{Title: "#", Right: true},
		{Title: "Prompt", Width: promptWidth},
		{Title: "Image"},
	}, rows))
}
