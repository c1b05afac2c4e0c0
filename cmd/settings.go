package cmd

import (
	"fmt"
	"os"

	"github.com/marcus/optsync/internal/draft"
	"github.com/marcus/optsync/internal/input"
	"github.com/marcus/optsync/internal/output"
	"github.com/marcus/optsync/internal/registry"
	"github.com/marcus/optsync/internal/settings"
	"github.com/marcus/optsync/internal/syncconfig"
	"github.com/spf13/cobra"
)

// optionJSON is the JSON shape of a single option.
type optionJSON struct {
	Name    string          `json:"name"`
	Value   settings.Value  `json:"value"`
	Saved   *settings.Value `json:"saved,omitempty"`
	Pending bool            `json:"pending"`
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List options with pending edits applied",
	GroupID: "settings",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := loadSessionWithDraft(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		pending := s.editor.Pending()

		var rows []output.OptionRow
		var items []optionJSON
		for _, def := range s.registry.Definitions() {
			v := s.effective(def)
			_, isPending := pending[def.Name]
			rows = append(rows, output.OptionRow{Definition: def, Value: v, Pending: isPending})
			items = append(items, optionJSON{Name: def.Name, Value: v, Pending: isPending})
		}

		if jsonMode(cmd) {
			return output.JSON(items)
		}
		if len(rows) == 0 {
			output.Info("no options defined")
			return nil
		}
		fmt.Println(output.FormatOptionRows(rows, output.TerminalWidth(0)))
		if len(pending) > 0 {
			fmt.Printf("\n%d unsaved edit(s), run 'optsync save' to apply\n", len(pending))
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:     "get <name>",
	Short:   "Print the effective value of an option",
	GroupID: "settings",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := loadSessionWithDraft(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		def, err := s.registry.Require(args[0])
		if err != nil {
			return fail(cmd, err)
		}

		v := s.effective(def)
		if jsonMode(cmd) {
			item := optionJSON{Name: def.Name, Value: v}
			if saved, ok := s.store.Lookup(def.Name); ok {
				item.Saved = &saved
			}
			_, item.Pending = s.editor.Pending()[def.Name]
			return output.JSON(item)
		}
		fmt.Println(v.String())
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:     "show <name>",
	Short:   "Describe an option",
	GroupID: "settings",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := loadSessionWithDraft(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		def, err := s.registry.Require(args[0])
		if err != nil {
			return fail(cmd, err)
		}

		current, ok := s.store.Lookup(def.Name)
		if !ok {
			current = def.Default
		}
		var pending *settings.Value
		if v, ok := s.editor.Pending()[def.Name]; ok {
			pending = &v
		}

		if jsonMode(cmd) {
			return output.JSON(map[string]any{
				"definition": def,
				"value":      current,
				"pending":    pending,
			})
		}

		md := output.OptionMarkdown(def, current, pending)
		if !output.IsTerminal() {
			fmt.Print(md)
			return nil
		}
		rendered, err := output.RenderMarkdown(md)
		if err != nil {
			fmt.Print(md)
			return nil
		}
		fmt.Print(rendered)
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set [name value]",
	Short: "Record option edits in the local draft",
	Long: `Record option edits in the local draft. Nothing is sent to the server
until 'optsync save' runs.

Values are checked against the option schema: bool options take true/false,
options with choices take one of the listed choices. A value of "-" reads
stdin and "@path" reads a file ("@@" escapes a literal "@").`,
	Example: `  optsync set site_name "Acme"
  optsync set --set notify_on=true --set comment_form_color=dark`,
	GroupID: "settings",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("expected <name> <value>, got %d argument(s)", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		edits := append([]assignment(nil), setAssignments.items...)
		if len(args) == 2 {
			edits = append(edits, assignment{Name: args[0], Value: args[1]})
		}
		if len(edits) == 0 {
			return fail(cmd, fmt.Errorf("nothing to set"))
		}
		if err := expandAssignments(edits); err != nil {
			return fail(cmd, err)
		}

		reg := loadRegistry(cmd.Context())
		events, err := fieldEvents(reg, edits)
		if err != nil {
			return fail(cmd, err)
		}

		f, err := openDraft()
		if err != nil {
			return fail(cmd, err)
		}
		err = f.Update(func(d *draft.Draft) error {
			warnServerMismatch(d)
			ed := settings.NewEditor(nil, nil)
			for _, name := range d.Pending.Names() {
				ed.Set(name, d.Pending[name])
			}
			for _, ev := range events {
				ed.RecordFieldChange(ev)
			}
			d.Pending = ed.Pending()
			d.Server = syncconfig.GetServerURL()
			return nil
		})
		if err != nil {
			return fail(cmd, err)
		}

		if jsonMode(cmd) {
			names := make([]string, len(events))
			for i, ev := range events {
				names[i] = ev.Name
			}
			return output.JSON(map[string]any{"recorded": names})
		}
		for _, ev := range events {
			output.Success("%s recorded", ev.Name)
		}
		return nil
	},
}

var diffCmd = &cobra.Command{
	Use:     "diff",
	Short:   "Show unsaved edits against the server values",
	GroupID: "settings",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := loadSessionWithDraft(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		pending := s.editor.Pending()

		if jsonMode(cmd) {
			items := make([]optionJSON, 0, len(pending))
			for _, name := range pending.Names() {
				item := optionJSON{Name: name, Value: pending[name], Pending: true}
				if saved, ok := s.store.Lookup(name); ok {
					item.Saved = &saved
				}
				items = append(items, item)
			}
			return output.JSON(items)
		}

		if len(pending) == 0 {
			output.Info("no unsaved edits")
			return nil
		}
		for _, name := range pending.Names() {
			old, hasOld := s.store.Lookup(name)
			fmt.Println(output.DiffLine(name, old, hasOld, pending[name]))
		}
		return nil
	},
}

var discardCmd = &cobra.Command{
	Use:     "discard",
	Short:   "Drop every unsaved edit",
	GroupID: "settings",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openDraft()
		if err != nil {
			return fail(cmd, err)
		}
		var dropped int
		err = f.Update(func(d *draft.Draft) error {
			dropped = len(d.Pending)
			d.Pending = settings.Options{}
			return nil
		})
		if err != nil {
			return fail(cmd, err)
		}

		if jsonMode(cmd) {
			return output.JSON(map[string]int{"discarded": dropped})
		}
		if dropped == 0 {
			output.Info("no unsaved edits")
			return nil
		}
		output.Success("discarded %d edit(s)", dropped)
		return nil
	},
}

var setAssignments assignmentsValue

// loadSessionWithDraft reads the draft and loads a session carrying its
// pending edits.
func loadSessionWithDraft(cmd *cobra.Command) (*session, *draft.Draft, error) {
	f, err := openDraft()
	if err != nil {
		return nil, nil, err
	}
	d, err := f.Load()
	if err != nil {
		return nil, nil, err
	}
	warnServerMismatch(d)
	s, err := loadSession(cmd.Context(), d.Pending)
	if err != nil {
		return nil, nil, err
	}
	return s, d, nil
}

// effective returns the value an option would have after a save: pending,
// then saved, then the schema default.
func (s *session) effective(def registry.Definition) settings.Value {
	if v, ok := s.editor.EffectiveValue(def.Name); ok {
		return v
	}
	return def.Default
}

// expandAssignments resolves stdin and @file values in place.
func expandAssignments(edits []assignment) error {
	values := make([]string, len(edits))
	for i, a := range edits {
		values[i] = a.Value
	}
	expanded, err := input.ExpandValues(values, os.Stdin)
	if err != nil {
		return err
	}
	for i := range edits {
		edits[i].Value = expanded[i]
	}
	return nil
}

// fieldEvents converts command-line assignments into editor events,
// validating each against the registry.
func fieldEvents(reg *registry.Registry, edits []assignment) ([]settings.FieldEvent, error) {
	events := make([]settings.FieldEvent, 0, len(edits))
	for _, a := range edits {
		v, err := reg.ParseInput(a.Name, a.Value)
		if err != nil {
			return nil, err
		}
		def, _ := reg.Get(a.Name)
		ev := settings.FieldEvent{Name: a.Name, Kind: def.Control(), Value: v.String()}
		if b, ok := v.Bool(); ok {
			ev.Checked = &b
		}
		events = append(events, ev)
	}
	return events, nil
}

func init() {
	setCmd.Flags().Var(&setAssignments, "set", "name=value to record (repeatable)")

	rootCmd.AddCommand(listCmd, getCmd, showCmd, setCmd, diffCmd, discardCmd)
}
