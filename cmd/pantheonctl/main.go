package main

import (
	"os"

	"github.com/pantheon-community/pantheonctl/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
