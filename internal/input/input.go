// Package input expands command-line values that read from stdin ("-") or
// a file ("@path").
package input

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrStdinReused is returned when more than one value asks for stdin.
var ErrStdinReused = errors.New("stdin can only be used for one value")

// ExpandValues replaces "-" with the contents of stdin and "@path" with the
// contents of the file. "@@text" is the literal "@text". One trailing
// newline is trimmed from expanded content.
func ExpandValues(values []string, stdin io.Reader) ([]string, error) {
	result := make([]string, len(values))
	stdinUsed := false
	for i, v := range values {
		switch {
		case v == "-":
			if stdinUsed {
				return nil, ErrStdinReused
			}
			stdinUsed = true
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("read stdin: %w", err)
			}
			result[i] = trimNewline(string(data))
		case strings.HasPrefix(v, "@@"):
			result[i] = v[1:]
		case strings.HasPrefix(v, "@") && len(v) > 1:
			data, err := os.ReadFile(v[1:])
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", v[1:], err)
			}
			result[i] = trimNewline(string(data))
		default:
			result[i] = v
		}
	}
	return result, nil
}

func trimNewline(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
