package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// assignment is one name=value pair from the command line.
type assignment struct {
	Name  string
	Value string
}

// assignmentsValue is a repeatable pflag.Value collecting name=value pairs.
type assignmentsValue struct {
	items []assignment
}

var _ pflag.Value = (*assignmentsValue)(nil)

func (a *assignmentsValue) String() string {
	parts := make([]string, len(a.items))
	for i, it := range a.items {
		parts[i] = it.Name + "=" + it.Value
	}
	return strings.Join(parts, ",")
}

func (a *assignmentsValue) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	a.items = append(a.items, assignment{Name: name, Value: value})
	return nil
}

func (a *assignmentsValue) Type() string {
	return "name=value"
}
