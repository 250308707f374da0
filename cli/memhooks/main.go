package main

import (
	"os"

	memhookscmder "github.com/papercomputeco/memhooks/cmd/memhooks"
)

func main() {
	cmd := memhookscmder.NewMemhooksCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
