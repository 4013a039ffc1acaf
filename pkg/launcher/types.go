package launcher

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
	"mvdan.cc/sh/v3/shell"
	"mvdan.cc/sh/v3/syntax"
)

// DefaultRestartCode is the exit code the update step uses to signal that the environment changed
// and a fresh process has to take over.
const DefaultRestartCode = 123

// RootVar is exported to every child and available during command expansion. It points to the
// directory containing the launcher table.
const RootVar = "LAUNCHER_ROOT"

var reservedNames = map[string]bool{
	"run":        true,
	"list":       true,
	"check":      true,
	"help":       true,
	"completion": true,
}

// CommandLine is either a shell-style line which is split into fields or an explicit argv list.
type CommandLine struct {
	Line string
	Argv []string
}

// IsEmpty returns true if neither a line nor an argv list was set
func (c CommandLine) IsEmpty() bool {
	return strings.TrimSpace(c.Line) == "" && len(c.Argv) == 0
}

// Resolve expands variables in the command and returns the final argv.
func (c CommandLine) Resolve(env func(string) string) ([]string, error) {
	if c.Line != "" {
		fields, err := shell.Fields(c.Line, env)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to expand command %s", c.Line)
		}

		if len(fields) == 0 {
			return nil, eris.Errorf("command %s expanded to nothing", c.Line)
		}
		return fields, nil
	}

	if len(c.Argv) == 0 {
		return nil, eris.New("empty command")
	}

	result := make([]string, len(c.Argv))
	for idx, arg := range c.Argv {
		value, err := shell.Expand(arg, env)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to expand argument #%d (%s)", idx, arg)
		}
		result[idx] = value
	}
	return result, nil
}

func (c CommandLine) String() string {
	if c.Line != "" {
		return c.Line
	}

	return quoteArgs(c.Argv)
}

// UnmarshalYAML accepts either a scalar (shell line) or a sequence (argv)
func (c *CommandLine) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&c.Line)
	case yaml.SequenceNode:
		return node.Decode(&c.Argv)
	default:
		return eris.Errorf("line %d: expected a string or a list of strings for a command", node.Line)
	}
}

func quoteArgs(args []string) string {
	parts := make([]string, len(args))
	for idx, arg := range args {
		quoted, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			quoted = fmt.Sprintf("%q", arg)
		}
		parts[idx] = quoted
	}

	return strings.Join(parts, " ")
}

// Launcher contains everything needed to start one of the wrapped tools
type Launcher struct {
	Name        string            `yaml:"-"`
	Desc        string            `yaml:"desc"`
	Main        CommandLine       `yaml:"main"`
	Update      CommandLine       `yaml:"update"`
	SkipUpdate  []string          `yaml:"skip_update"`
	RestartCode int               `yaml:"restart_code"`
	Env         map[string]string `yaml:"env"`
	PrependPath []string          `yaml:"prepend_path"`
	PythonPath  []string          `yaml:"python_path"`
	Editor      string            `yaml:"editor"`
	Hidden      bool              `yaml:"hidden"`

	// Root is the directory the launcher table was loaded from.
	Root string `yaml:"-"`
}

// HasUpdate returns true if the launcher declares an update command
func (l *Launcher) HasUpdate() bool {
	return !l.Update.IsEmpty()
}

// SkipsUpdate checks whether the given subcommand is exempt from the update check
func (l *Launcher) SkipsUpdate(subcommand string) bool {
	if subcommand == "" {
		return false
	}

	for _, name := range l.SkipUpdate {
		if name == subcommand {
			return true
		}
	}
	return false
}

// NeedsUpdate decides whether the update step has to run for the given arguments. The second
// value describes the decision for logs and the check command.
func (l *Launcher) NeedsUpdate(args []string, policyEnabled bool) (bool, string) {
	if !l.HasUpdate() {
		return false, "launcher has no update command"
	}

	if !policyEnabled {
		return false, "auto-update is disabled"
	}

	subcommand := ""
	if len(args) > 0 {
		subcommand = args[0]
	}

	if l.SkipsUpdate(subcommand) {
		return false, fmt.Sprintf("subcommand %s is exempt from updates", subcommand)
	}

	return true, "update required"
}

// Validate checks the launcher for missing or invalid fields
func (l *Launcher) Validate() error {
	if l.Name == "" {
		return eris.New("launcher is missing a name")
	}

	if reservedNames[l.Name] {
		return eris.Errorf(`the launcher name "%s" is reserved, please use a different name`, l.Name)
	}

	if l.Main.IsEmpty() {
		return eris.Errorf("launcher %s is missing a main command", l.Name)
	}

	if l.RestartCode < 0 || l.RestartCode > 255 {
		return eris.Errorf("launcher %s: restart code %d is outside of 1..255", l.Name, l.RestartCode)
	}

	return nil
}

// Table maps launcher names to their definitions
type Table map[string]*Launcher

// Add validates the launcher and adds it to the table
func (t Table) Add(l *Launcher) error {
	if err := l.Validate(); err != nil {
		return err
	}

	if _, present := t[l.Name]; present {
		return eris.Errorf("launcher %s was declared twice", l.Name)
	}

	t[l.Name] = l
	return nil
}
