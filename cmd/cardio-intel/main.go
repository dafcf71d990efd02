package main

import (
	"context"
	"os"

	"github.com/miradorstack/cardio-intel/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
