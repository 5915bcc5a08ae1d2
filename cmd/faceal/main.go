package main

import (
	"os"

	"github.com/interview-coach/behavior-pipeline/cli"
)

func main() {
	os.Exit(cli.Main(cli.NewFaceCommand("faceal")))
}
