package shell

import (
	"regexp"
	"strings"

	caterrors "github.com/maxkimambo/cgaprov/internal/errors"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_-]+)\}`)

// Template is a command line whose arguments may contain {name} placeholders.
// Each element becomes exactly one argv entry, so substituted values are never
// split or re-interpreted by a shell.
type Template []string

// String joins the template for display
func (t Template) String() string {
	return strings.Join(t, " ")
}

// Placeholders lists the distinct placeholder names in order of first use
func (t Template) Placeholders() []string {
	seen := make(map[string]bool)
	var names []string
	for _, arg := range t {
		for _, m := range placeholderPattern.FindAllStringSubmatch(arg, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				names = append(names, m[1])
			}
		}
	}
	return names
}

// Render substitutes params into the template. A placeholder with no entry in
// params is a configuration error; an entry with an empty value is allowed.
func (t Template) Render(params map[string]string) ([]string, error) {
	for _, name := range t.Placeholders() {
		if _, ok := params[name]; !ok {
			return nil, caterrors.NewUnboundPlaceholderError(name, t.String())
		}
	}

	argv := make([]string, len(t))
	for i, arg := range t {
		argv[i] = placeholderPattern.ReplaceAllStringFunc(arg, func(m string) string {
			return params[m[1:len(m)-1]]
		})
	}
	return argv, nil
}
