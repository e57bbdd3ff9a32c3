package main

import (
	"fmt"
	"os"

	"github.com/MrEthical07/evangelho/cmd/evangelho/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
