package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// Interrupted runs already logged their state; keep the exit quiet.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "tubedigest: %v\n", err)
		}
		os.Exit(1)
	}
}
