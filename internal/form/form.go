// Package form builds an interactive huh form over the option registry and
// turns the edited fields into Editor changes.
package form

import (
	"github.com/charmbracelet/huh"
	"github.com/marcus/optsync/internal/registry"
	"github.com/marcus/optsync/internal/settings"
)

// field holds the bound value of one form control.
type field struct {
	def     registry.Definition
	initial settings.Value

	Text    string
	Checked bool
}

// event converts the bound value into the change event its control emits.
func (f *field) event() settings.FieldEvent {
	ev := settings.FieldEvent{Name: f.def.Name, Kind: f.def.Control()}
	if ev.Kind == settings.ControlCheckbox {
		checked := f.Checked
		ev.Checked = &checked
		ev.Value = "1"
		return ev
	}
	ev.Value = f.Text
	return ev
}

func (f *field) changed() bool {
	if f.def.Control() == settings.ControlCheckbox {
		b, ok := f.initial.Bool()
		return !ok || b != f.Checked
	}
	s, ok := f.initial.Str()
	return !ok || s != f.Text
}

// FormState holds the form and its bound values.
type FormState struct {
	Form   *huh.Form
	fields []*field
}

// NewFormState builds a form with one control per registry option,
// prefilled with the editor's effective values (falling back to defaults).
func NewFormState(reg *registry.Registry, ed *settings.Editor) *FormState {
	fs := &FormState{}
	for _, def := range reg.Definitions() {
		initial, ok := ed.EffectiveValue(def.Name)
		if !ok {
			initial = def.Default
		}
		f := &field{def: def, initial: initial}
		if b, ok := initial.Bool(); ok {
			f.Checked = b
		} else {
			f.Text = initial.String()
		}
		fs.fields = append(fs.fields, f)
	}
	fs.buildForm()
	return fs
}

// buildForm constructs the huh.Form from the bound fields.
func (fs *FormState) buildForm() {
	controls := make([]huh.Field, 0, len(fs.fields))
	for _, f := range fs.fields {
		def := f.def
		switch def.Control() {
		case settings.ControlCheckbox:
			controls = append(controls, huh.NewConfirm().
				Title(def.Title()).
				Description(def.Name).
				Affirmative("On").
				Negative("Off").
				Value(&f.Checked))
		case settings.ControlSelect:
			opts := make([]huh.Option[string], 0, len(def.Choices))
			for _, c := range def.Choices {
				opts = append(opts, huh.NewOption(c, c))
			}
			controls = append(controls, huh.NewSelect[string]().
				Title(def.Title()).
				Description(def.Name).
				Options(opts...).
				Value(&f.Text))
		default:
			controls = append(controls, huh.NewInput().
				Title(def.Title()).
				Description(def.Name).
				Value(&f.Text))
		}
	}

	fs.Form = huh.NewForm(huh.NewGroup(controls...).Title("Settings"))
	fs.Form.WithTheme(huh.ThemeDracula())
}

// Run shows the form until the user submits or aborts.
func (fs *FormState) Run() error {
	return fs.Form.Run()
}

// Apply records every changed field on ed and returns the names changed.
func (fs *FormState) Apply(ed *settings.Editor) []string {
	var names []string
	for _, f := range fs.fields {
		if !f.changed() {
			continue
		}
		ed.RecordFieldChange(f.event())
		names = append(names, f.def.Name)
	}
	return names
}
