// syncat prints a file with the syntax highlighting of a terminal editor.
package main

import (
	"os"

	"syncat/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
