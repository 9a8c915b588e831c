package main

import (
	"os"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
