package main

import (
	"os"

	"fundguard/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
