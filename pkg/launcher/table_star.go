package launcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"
)

type tableCtx struct {
	ctx      context.Context
	filepath string
	root     string
	table    Table
}

func getTableCtx(thread *starlark.Thread) *tableCtx {
	return thread.Local("tableCtx").(*tableCtx)
}

func starlarkStrings(value starlark.Value, field string) ([]string, error) {
	if value == nil || value == starlark.None {
		return nil, nil
	}

	if str, ok := value.(starlark.String); ok {
		return []string{str.GoString()}, nil
	}

	iterable, ok := value.(starlark.Iterable)
	if !ok {
		return nil, eris.Errorf("expected %s to be a list of strings but got %s", field, value.Type())
	}

	result := make([]string, 0)
	iter := iterable.Iterate()
	defer iter.Done()

	var item starlark.Value
	for iter.Next(&item) {
		str, ok := item.(starlark.String)
		if !ok {
			return nil, eris.Errorf("expected all items in %s to be strings but found %s", field, item.Type())
		}
		result = append(result, str.GoString())
	}
	return result, nil
}

func starlarkCommand(value starlark.Value, field string) (CommandLine, error) {
	if value == nil || value == starlark.None {
		return CommandLine{}, nil
	}

	if str, ok := value.(starlark.String); ok {
		return CommandLine{Line: str.GoString()}, nil
	}

	argv, err := starlarkStrings(value, field)
	if err != nil {
		return CommandLine{}, err
	}
	return CommandLine{Argv: argv}, nil
}

func tableMessage(thread *starlark.Thread, msg string) string {
	ctx := getTableCtx(thread)
	pos := thread.CallFrame(1).Pos

	return fmt.Sprintf("%s:%d:%d: %s", filepath.Base(ctx.filepath), pos.Line, pos.Col, msg)
}

// * Builtin functions

func starLauncher(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var main, update, skipUpdate, prependPath, pythonPath starlark.Value
	var env *starlark.Dict

	l := new(Launcher)
	err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &l.Name, "main", &main, "desc?", &l.Desc,
		"update?", &update, "skip_update?", &skipUpdate, "restart_code?", &l.RestartCode, "env?", &env,
		"prepend_path?", &prependPath, "python_path?", &pythonPath, "editor?", &l.Editor, "hidden?", &l.Hidden)
	if err != nil {
		return nil, err
	}

	l.Main, err = starlarkCommand(main, "main")
	if err != nil {
		return nil, err
	}

	l.Update, err = starlarkCommand(update, "update")
	if err != nil {
		return nil, err
	}

	l.SkipUpdate, err = starlarkStrings(skipUpdate, "skip_update")
	if err != nil {
		return nil, err
	}

	l.PrependPath, err = starlarkStrings(prependPath, "prepend_path")
	if err != nil {
		return nil, err
	}

	l.PythonPath, err = starlarkStrings(pythonPath, "python_path")
	if err != nil {
		return nil, err
	}

	l.Env = map[string]string{}
	if env != nil {
		for _, item := range env.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, eris.Errorf("found key type %s in env map but only strings are supported", item[0].Type())
			}

			value, ok := item[1].(starlark.String)
			if !ok {
				return nil, eris.Errorf("found value of type %s for key %s but only strings are supported", item[1].Type(), key.GoString())
			}

			l.Env[key.GoString()] = value.GoString()
		}
	}

	ctx := getTableCtx(thread)
	l.Root = ctx.root
	if err := ctx.table.Add(l); err != nil {
		return nil, err
	}

	return starlark.None, nil
}

func starGetenv(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var key string
	var defaultValue string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &key, &defaultValue)
	if err != nil {
		return nil, err
	}

	value, ok := os.LookupEnv(key)
	if !ok {
		value = defaultValue
	}

	return starlark.String(value), nil
}

func starResolvePath(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, eris.Errorf("%s: unexpected keyword arguments", fn.Name())
	}

	parts := make([]string, len(args)+1)
	parts[0] = getTableCtx(thread).root
	for idx, item := range args {
		str, ok := item.(starlark.String)
		if !ok {
			return nil, eris.Errorf("%s: only accepts string arguments but argument %d was a %s", fn.Name(), idx, item.Type())
		}
		parts[idx+1] = str.GoString()
	}

	// absolute parts replace everything before them
	result := parts[0]
	for _, part := range parts[1:] {
		if filepath.IsAbs(part) {
			result = part
		} else {
			result = filepath.Join(result, part)
		}
	}

	return starlark.String(filepath.Clean(result)), nil
}

func starInfo(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &message)
	if err != nil {
		return nil, err
	}

	log(getTableCtx(thread).ctx).Info().Msg(tableMessage(thread, message))
	return starlark.None, nil
}

func starWarn(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &message)
	if err != nil {
		return nil, err
	}

	log(getTableCtx(thread).ctx).Warn().Msg(tableMessage(thread, message))
	return starlark.None, nil
}

func loadStarlarkTable(ctx context.Context, filename string) (Table, error) {
	builtins := starlark.StringDict{
		"OS":           starlark.String(runtime.GOOS),
		"ARCH":         starlark.String(runtime.GOARCH),
		"info":         starlark.NewBuiltin("info", starInfo),
		"warn":         starlark.NewBuiltin("warn", starWarn),
		"getenv":       starlark.NewBuiltin("getenv", starGetenv),
		"resolve_path": starlark.NewBuiltin("resolve_path", starResolvePath),
		"launcher":     starlark.NewBuiltin("launcher", starLauncher),
	}

	threadCtx := tableCtx{
		ctx:      ctx,
		filepath: filename,
		root:     filepath.Dir(filename),
		table:    Table{},
	}
	thread := &starlark.Thread{
		Name: "launchers",
		Print: func(thread *starlark.Thread, msg string) {
			log(ctx).Info().Str("thread", thread.Name).Msg(msg)
		},
	}
	thread.SetLocal("tableCtx", &threadCtx)

	script, err := os.ReadFile(filename)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read file %s", filename)
	}

	_, err = starlark.ExecFile(thread, filename, script, builtins)
	if err != nil {
		if evalError, ok := err.(*starlark.EvalError); ok {
			return nil, eris.Errorf("failed to execute %s:\n%s", filename, evalError.Backtrace())
		}
		return nil, eris.Wrapf(err, "failed to execute %s", filename)
	}

	return threadCtx.table, nil
}
