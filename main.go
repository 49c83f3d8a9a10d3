package main

import (
	"github.com/BohdanBykov/gha-optimizer/cmd"
)

func main() {
	cmd.Execute()
}
