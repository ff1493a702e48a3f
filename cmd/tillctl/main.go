package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/fekuna/omnipos-till-service/internal/cli"
)

func main() {
	_ = godotenv.Load()

	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
