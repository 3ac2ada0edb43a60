package main

import (
	"os"

	"github.com/dshills/preflight/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
