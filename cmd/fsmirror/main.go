package main

import (
	"github.com/fsmirror/fsmirror/cmd/fsmirror/cmd"
)

func main() {
	cmd.Execute()
}
