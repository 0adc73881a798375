package toolexec

import (
	"fmt"
	"regexp"
	"strings"

	"burnaudio/internal/config"
)

var placeholderPattern = regexp.MustCompile(`\{[a-z_]+\}`)

// Command is a resolved program invocation.
type Command struct {
	Path string
	Args []string
}

// String renders the command for logs.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Path)
	for _, arg := range c.Args {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			parts = append(parts, fmt.Sprintf("%q", arg))
			continue
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// Vars maps placeholder names (without braces) to values.
type Vars map[string]string

// Expand substitutes vars into tool's argument template. A placeholder left
// without a value is an error so a typo in configuration never reaches the
// program as a literal argument.
func Expand(tool config.Tool, vars Vars) (Command, error) {
	path := strings.TrimSpace(tool.Command)
	if path == "" {
		return Command{}, fmt.Errorf("tool command is empty")
	}
	args := make([]string, 0, len(tool.Args))
	for _, arg := range tool.Args {
		for _, token := range placeholderPattern.FindAllString(arg, -1) {
			if _, ok := vars[strings.Trim(token, "{}")]; !ok {
				return Command{}, fmt.Errorf("%s: unknown placeholder %s in argument %q", path, token, arg)
			}
		}
		// Values are inserted verbatim and never rescanned.
		args = append(args, placeholderPattern.ReplaceAllStringFunc(arg, func(token string) string {
			return vars[strings.Trim(token, "{}")]
		}))
	}
	return Command{Path: path, Args: args}, nil
}
