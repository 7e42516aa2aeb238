package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gyaneshwarpardhi/blockwatch/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "blockwatch:", err)
		os.Exit(1)
	}
}
