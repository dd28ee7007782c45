package main

import (
	"github/noctiluca/go-tools/cmd"
)

func main() {
	cmd.Execute()
}
