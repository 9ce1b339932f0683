package main

import (
	"os"

	"github.com/gircore/girbind/pkg/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
