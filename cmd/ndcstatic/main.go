// Command ndcstatic serves and queries static collections.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/ndcstatic/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
