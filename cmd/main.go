package main

import (
	"os"

	"phiz-quiz-service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
