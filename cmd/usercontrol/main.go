// Package main is the entry point for the usercontrol binary.
package main

import (
	"os"

	cli "user-control/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
