package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/shell"
)

// Variables set for the main tool so that Python based tools flush their output immediately and
// don't litter the checkout with bytecode caches.
var mainToolEnv = map[string]string{
	"PYTHONUNBUFFERED":        "1",
	"PYTHONDONTWRITEBYTECODE": "1",
}

func envKey(name string) string {
	if runtime.GOOS == "windows" {
		return strings.ToUpper(name)
	}
	return name
}

func lookupEnv(env []string, name string) (string, bool) {
	name = envKey(name)
	found := false
	value := ""

	// later entries win, just like in os/exec
	for _, item := range env {
		parts := strings.SplitN(item, "=", 2)
		if len(parts) == 2 && envKey(parts[0]) == name {
			value = parts[1]
			found = true
		}
	}
	return value, found
}

type envMap map[string]string

func newEnvMap(environ []string) envMap {
	env := make(envMap, len(environ))
	for _, item := range environ {
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			// skips the special "=C:=C:\" entries on Windows
			continue
		}
		env[envKey(parts[0])] = parts[1]
	}
	return env
}

func (e envMap) get(name string) string {
	return e[envKey(name)]
}

func (e envMap) set(name, value string) {
	e[envKey(name)] = value
}

func (e envMap) prependList(name string, items []string) {
	if len(items) == 0 {
		return
	}

	value := strings.Join(items, string(os.PathListSeparator))
	if current := e.get(name); current != "" {
		value += string(os.PathListSeparator) + current
	}
	e.set(name, value)
}

func (e envMap) list() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, len(keys))
	for idx, k := range keys {
		result[idx] = fmt.Sprintf("%s=%s", k, e[k])
	}
	return result
}

func (l *Launcher) resolvePaths(env envMap, paths []string) ([]string, error) {
	result := make([]string, 0, len(paths))
	for _, item := range paths {
		expanded, err := shell.Expand(item, env.get)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to expand path %s", item)
		}

		if expanded == "" {
			continue
		}

		if !filepath.IsAbs(expanded) && l.Root != "" {
			expanded = filepath.Join(l.Root, expanded)
		}
		result = append(result, filepath.Clean(expanded))
	}
	return result, nil
}

// buildEnv derives the environment for one of the launcher's children from environ. editor is used
// as EDITOR if neither the environment nor the launcher provide one.
func (l *Launcher) buildEnv(environ []string, editor string, mainTool bool) (envMap, error) {
	env := newEnvMap(environ)
	if l.Root != "" {
		env.set(RootVar, l.Root)
	}

	keys := make([]string, 0, len(l.Env))
	for k := range l.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		value, err := shell.Expand(l.Env[k], env.get)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to expand env var %s", k)
		}
		env.set(k, value)
	}

	binPaths, err := l.resolvePaths(env, l.PrependPath)
	if err != nil {
		return nil, err
	}
	env.prependList("PATH", binPaths)

	pyPaths, err := l.resolvePaths(env, l.PythonPath)
	if err != nil {
		return nil, err
	}
	env.prependList("PYTHONPATH", pyPaths)

	if l.Editor != "" {
		editor = l.Editor
	}
	if editor != "" && env.get("EDITOR") == "" {
		env.set("EDITOR", editor)
	}

	if mainTool {
		for k, v := range mainToolEnv {
			env.set(k, v)
		}
	}

	return env, nil
}

// prepare resolves one of the launcher's command lines into a runnable command
func (l *Launcher) prepare(cmdLine CommandLine, args, environ []string, editor string, mainTool bool) (Command, error) {
	env, err := l.buildEnv(environ, editor, mainTool)
	if err != nil {
		return Command{}, err
	}

	argv, err := cmdLine.Resolve(env.get)
	if err != nil {
		return Command{}, err
	}

	cmdArgs := make([]string, 0, len(argv)-1+len(args))
	cmdArgs = append(cmdArgs, argv[1:]...)
	cmdArgs = append(cmdArgs, args...)

	return Command{
		Path: argv[0],
		Args: cmdArgs,
		Env:  env.list(),
	}, nil
}
