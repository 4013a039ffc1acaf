package main

import (
	"os"

	"github.com/iuhjui-sugar/depot-tools/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args))
}
