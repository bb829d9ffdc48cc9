package main

import (
	"os"

	"notely/internal/cli"
	"notely/internal/logs"
	"notely/internal/tui"
)

func main() {
	code := cli.Run(os.Args[1:], tui.Run)
	logs.Close()
	os.Exit(code)
}
