package main

import (
	"os"

	"github.com/psds-microservice/search-facade/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
