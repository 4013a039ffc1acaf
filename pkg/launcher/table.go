package launcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// TableFiles lists the file names FindTable looks for, in order of preference
var TableFiles = []string{"launchers.star", "launchers.yml", "launchers.yaml"}

// FindTable walks up from each of the given directories and returns the first launcher table it finds
func FindTable(startDirs ...string) (string, error) {
	for _, dir := range startDirs {
		if dir == "" {
			continue
		}

		path, err := filepath.Abs(dir)
		if err != nil {
			return "", eris.Wrapf(err, "failed to resolve %s", dir)
		}

		for {
			for _, name := range TableFiles {
				candidate := filepath.Join(path, name)
				_, err := os.Stat(candidate)
				if err == nil {
					return candidate, nil
				}

				if !eris.Is(err, os.ErrNotExist) {
					return "", eris.Wrapf(err, "failed to check %s", candidate)
				}
			}

			parent := filepath.Dir(path)
			if parent == path {
				break
			}
			path = parent
		}
	}

	return "", eris.Errorf("no launcher table (%s) found", strings.Join(TableFiles, ", "))
}

// LoadTable parses the launcher table at path. The format is picked based on the file extension.
func LoadTable(ctx context.Context, path string) (Table, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	switch filepath.Ext(path) {
	case ".star":
		return loadStarlarkTable(ctx, path)
	case ".yml", ".yaml":
		return loadYAMLTable(path)
	default:
		return nil, eris.Errorf("unsupported launcher table format %s", filepath.Ext(path))
	}
}

type yamlTable struct {
	Launchers map[string]*Launcher
}

func loadYAMLTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "could not open file %s", path)
	}

	var doc yamlTable
	err = yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse %s", path)
	}

	root := filepath.Dir(path)
	table := Table{}
	for name, l := range doc.Launchers {
		if l == nil {
			return nil, eris.Errorf("%s: launcher %s is empty", path, name)
		}

		l.Name = name
		l.Root = root
		if err := table.Add(l); err != nil {
			return nil, eris.Wrapf(err, "invalid launcher in %s", path)
		}
	}

	return table, nil
}

// Names returns the sorted names of all visible launchers
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name, l := range t {
		if !l.Hidden {
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names
}

// Lookup finds a launcher by name. Names of executables ("gclient.exe", "/path/to/gclient") are
// accepted as well.
func (t Table) Lookup(name string) (*Launcher, bool) {
	name = filepath.Base(name)
	if l, ok := t[name]; ok {
		return l, true
	}

	ext := filepath.Ext(name)
	if strings.EqualFold(ext, ".exe") || strings.EqualFold(ext, ".bat") {
		l, ok := t[strings.TrimSuffix(name, ext)]
		return l, ok
	}

	return nil, false
}
