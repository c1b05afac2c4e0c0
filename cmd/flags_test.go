package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/marcus/optsync/internal/registry"
	"github.com/marcus/optsync/internal/settings"
)

func TestAssignmentsValue(t *testing.T) {
	var a assignmentsValue
	if err := a.Set("site_name=Acme=Corp"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := a.Set(" notify_on =true"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(a.items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(a.items))
	}
	if a.items[0].Value != "Acme=Corp" {
		t.Errorf("value split on first '=' only: got %q", a.items[0].Value)
	}
	if a.items[1].Name != "notify_on" {
		t.Errorf("name not trimmed: %q", a.items[1].Name)
	}
	if got := a.String(); got != "site_name=Acme=Corp,notify_on=true" {
		t.Errorf("String: %q", got)
	}

	for _, bad := range []string{"novalue", "=x", ""} {
		if err := a.Set(bad); err == nil {
			t.Errorf("Set(%q) should fail", bad)
		}
	}
}

func TestFieldEvents(t *testing.T) {
	reg := registry.Default()

	events, err := fieldEvents(reg, []assignment{
		{Name: "notify_on", Value: "true"},
		{Name: "site_name", Value: "Acme"},
	})
	if err != nil {
		t.Fatalf("fieldEvents: %v", err)
	}

	ed := settings.NewEditor(nil, nil)
	for _, ev := range events {
		ed.RecordFieldChange(ev)
	}
	pending := ed.Pending()
	if !pending["notify_on"].Equal(settings.Bool(true)) {
		t.Errorf("notify_on: got %#v", pending["notify_on"])
	}
	if !pending["site_name"].Equal(settings.String("Acme")) {
		t.Errorf("site_name: got %#v", pending["site_name"])
	}

	if _, err := fieldEvents(reg, []assignment{{Name: "nope", Value: "x"}}); errCode(err) != "unknown_option" {
		t.Errorf("unknown option: got %v", err)
	}
	if _, err := fieldEvents(reg, []assignment{{Name: "comment_form_color", Value: "purple"}}); err == nil {
		t.Error("expected choice error")
	}
}

func TestFlagErrorSuggests(t *testing.T) {
	err := flagError(listCmd, errors.New("unknown flag: --jsn"))
	if !strings.Contains(err.Error(), "did you mean --json") {
		t.Fatalf("missing hint: %v", err)
	}

	other := errors.New("flag needs an argument: --set")
	if got := flagError(listCmd, other); got != other {
		t.Fatalf("other errors pass through, got %v", got)
	}
}
