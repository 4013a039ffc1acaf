package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
)

// ConsoleWriter renders zerolog's JSON events as short colored lines
type ConsoleWriter struct {
	Out     io.Writer
	Verbose bool

	buffer strings.Builder
	lock   sync.Mutex
}

func NewConsoleWriter(verbose bool) *ConsoleWriter {
	return &ConsoleWriter{Out: os.Stderr, Verbose: verbose}
}

func (w *ConsoleWriter) Write(p []byte) (n int, err error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	var evt map[string]interface{}
	d := json.NewDecoder(bytes.NewReader(p))
	d.UseNumber()
	err = d.Decode(&evt)
	if err != nil {
		return n, eris.Wrapf(err, "cannot decode event: %s", p)
	}

	w.buffer.Reset()
	switch evt["level"] {
	case "fatal", "error":
		w.buffer.WriteString("[red]")
	case "warn":
		w.buffer.WriteString("[yellow]")
	case "debug", "trace":
		w.buffer.WriteString("[blue]")
	default:
		w.buffer.WriteString("[green]")
	}

	if name, ok := evt["launcher"].(string); ok {
		w.buffer.WriteString(name + ": ")
	}

	if evt["level"] == "error" {
		w.buffer.WriteString("Error: ")
	}

	if isCmd, _ := evt["command"].(bool); isCmd {
		w.buffer.WriteString("$ ")
	}

	msg, _ := evt["message"].(string)
	w.buffer.WriteString(msg)

	if code, ok := evt["code"]; ok {
		w.buffer.WriteString(fmt.Sprintf(" (exit code %v)", code))
	}

	if errorDetails, ok := evt["error"].(string); ok {
		w.buffer.WriteString("\n")
		w.buffer.WriteString(errorDetails)
	}

	if w.Verbose {
		w.buffer.WriteString("\n")
		keys := make([]string, 0, len(evt))
		for name := range evt {
			keys = append(keys, name)
		}
		sort.Strings(keys)

		for _, name := range keys {
			w.buffer.WriteString(fmt.Sprintf("  %s: %+v\n", name, evt[name]))
		}
	}

	w.buffer.WriteString("[reset]\n")
	_, err = colorstring.Fprint(w.Out, w.buffer.String())
	if err != nil {
		return 0, err
	}

	return len(p), nil
}
