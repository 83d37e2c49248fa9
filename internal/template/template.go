package template

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Template is a mail template: a one-line subject pattern and a body pattern.
// Patterns reference row fields as {name}; {{ and }} produce literal braces.
type Template struct {
	Subject string
	Body    string
}

// Load reads and parses the template file at path.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	t, err := Parse(string(data))
	if err != nil {
		var se *StructureError
		if errors.As(err, &se) {
			se.Path = path
		}
		return nil, err
	}
	return t, nil
}

// Parse splits text into subject (line 1) and body (line 3 onwards). Line 2
// must be empty. Both patterns are checked for brace syntax.
func Parse(text string) (*Template, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")

	if lines[0] == "" {
		return nil, &StructureError{Line: 1, Err: ErrEmptySubject}
	}
	if len(lines) < 2 || lines[1] != "" {
		return nil, &StructureError{Line: 2, Err: ErrMissingSeparator}
	}
	if len(lines) < 3 || lines[2] == "" {
		return nil, &StructureError{Line: 3, Err: ErrEmptyBody}
	}

	t := &Template{
		Subject: lines[0],
		Body:    strings.Join(lines[2:], "\n"),
	}
	for _, p := range []string{t.Subject, t.Body} {
		if _, err := Placeholders(p); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Render fills both patterns from fields.
func (t *Template) Render(fields map[string]string) (subject, body string, err error) {
	subject, err = Expand(t.Subject, fields)
	if err != nil {
		return "", "", fmt.Errorf("subject: %w", err)
	}
	body, err = Expand(t.Body, fields)
	if err != nil {
		return "", "", fmt.Errorf("body: %w", err)
	}
	return subject, body, nil
}

// Placeholders returns the placeholder names in pattern, in order of appearance.
func Placeholders(pattern string) ([]string, error) {
	var names []string
	err := scan(pattern, func(lit string) {}, func(name string) error {
		names = append(names, name)
		return nil
	})
	return names, err
}

// Expand substitutes every {name} in pattern with fields[name].
func Expand(pattern string, fields map[string]string) (string, error) {
	var b strings.Builder
	err := scan(pattern, func(lit string) { b.WriteString(lit) }, func(name string) error {
		v, ok := fields[name]
		if !ok {
			return &MissingPlaceholderError{Name: name}
		}
		b.WriteString(v)
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

func scan(pattern string, literal func(string), field func(string) error) error {
	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch {
		case c == '{' && strings.HasPrefix(pattern[i:], "{{"):
			literal("{")
			i += 2
		case c == '}' && strings.HasPrefix(pattern[i:], "}}"):
			literal("}")
			i += 2
		case c == '{':
			end := strings.IndexAny(pattern[i+1:], "{}")
			if end < 0 || pattern[i+1+end] != '}' {
				return &SyntaxError{Pattern: pattern, Offset: i, Msg: "unclosed '{'"}
			}
			name := pattern[i+1 : i+1+end]
			if name == "" {
				return &SyntaxError{Pattern: pattern, Offset: i, Msg: "empty placeholder"}
			}
			if err := field(name); err != nil {
				return err
			}
			i += end + 2
		case c == '}':
			return &SyntaxError{Pattern: pattern, Offset: i, Msg: "single '}' encountered"}
		default:
			j := strings.IndexAny(pattern[i:], "{}")
			if j < 0 {
				j = len(pattern) - i
			}
			literal(pattern[i : i+j])
			i += j
		}
	}
	return nil
}
