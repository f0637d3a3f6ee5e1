// Command cogscreen scores transcripts from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/ZanzyTHEbar/cogscreen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
