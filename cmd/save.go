package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/marcus/optsync/internal/draft"
	"github.com/marcus/optsync/internal/form"
	"github.com/marcus/optsync/internal/notice"
	"github.com/marcus/optsync/internal/output"
	"github.com/marcus/optsync/internal/settings"
	"github.com/marcus/optsync/internal/syncconfig"
	"github.com/marcus/optsync/internal/tui/savestatus"
	"github.com/spf13/cobra"
)

// saveResult is the JSON output of a save.
type saveResult struct {
	Saved     []string `json:"saved"`
	Remaining []string `json:"remaining"`
}

var saveCmd = &cobra.Command{
	Use:     "save",
	Short:   "Send unsaved edits to the server",
	Long:    `Send every unsaved edit to the server in one batch. On failure the draft is kept so the save can be retried.`,
	GroupID: "settings",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := saveDraft(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		if jsonMode(cmd) {
			return output.JSON(res)
		}
		if len(res.Saved) == 0 {
			output.Info("no unsaved edits")
		}
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:     "edit",
	Short:   "Edit options in an interactive form",
	GroupID: "settings",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !output.IsTerminal() {
			return fail(cmd, errors.New("edit needs an interactive terminal (use 'optsync set')"))
		}

		s, _, err := loadSessionWithDraft(cmd)
		if err != nil {
			return fail(cmd, err)
		}

		fs := form.NewFormState(s.registry, s.editor)
		if err := fs.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				output.Info("edit aborted, nothing recorded")
				return nil
			}
			return fail(cmd, err)
		}

		changed := fs.Apply(s.editor)
		if len(changed) == 0 {
			output.Info("no changes")
			return nil
		}

		f, err := openDraft()
		if err != nil {
			return fail(cmd, err)
		}
		pending := s.editor.Pending()
		err = f.Update(func(d *draft.Draft) error {
			for _, name := range changed {
				d.Pending[name] = pending[name]
			}
			d.Server = syncconfig.GetServerURL()
			return nil
		})
		if err != nil {
			return fail(cmd, err)
		}
		output.Success("recorded %d edit(s)", len(changed))

		if noSave, _ := cmd.Flags().GetBool("no-save"); noSave {
			return nil
		}
		if _, err := saveDraft(cmd); err != nil {
			return fail(cmd, err)
		}
		return nil
	},
}

// saveDraft submits the draft's pending edits while holding its lock. Edits
// the server accepted leave the draft; the rest stay for the next save.
func saveDraft(cmd *cobra.Command) (*saveResult, error) {
	f, err := openDraft()
	if err != nil {
		return nil, err
	}

	res := &saveResult{Saved: []string{}, Remaining: []string{}}
	var submitErr error
	err = f.Update(func(d *draft.Draft) error {
		if d.Empty() {
			return nil
		}
		warnServerMismatch(d)

		s, err := loadSession(cmd.Context(), d.Pending)
		if err != nil {
			return err
		}
		submitErr = submit(cmd.Context(), s.editor, jsonMode(cmd))

		remaining := s.editor.Pending()
		for _, name := range d.Pending.Names() {
			if _, ok := remaining[name]; !ok {
				res.Saved = append(res.Saved, name)
			}
		}
		res.Remaining = remaining.Names()
		d.Pending = remaining
		d.Server = syncconfig.GetServerURL()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if submitErr != nil {
		return nil, submitErr
	}
	return res, nil
}

// submit runs one editor submit, reporting progress with a spinner on a
// terminal and as plain lines otherwise.
func submit(ctx context.Context, ed *settings.Editor, quiet bool) error {
	switch {
	case quiet:
		return ed.Submit(ctx, notice.Func(func(n notice.Notice) {
			slog.Debug("settings notice", "status", n.Status, "text", n.Text)
		}))
	case output.IsTerminal():
		return savestatus.Run(ctx, ed, os.Stdout)
	default:
		return ed.Submit(ctx, output.NoticePrinter{W: os.Stdout})
	}
}

func init() {
	editCmd.Flags().Bool("no-save", false, "record edits in the draft without saving")

	rootCmd.AddCommand(saveCmd, editCmd)
}
