package main

import (
	"os"

	"github.com/solatis/bamboorules/cmd/bamboorules/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
