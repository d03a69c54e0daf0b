package main

import (
	"os"

	"github.com/psantana5/tunnelsup/cmd/tunnelsup/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
