package main

import (
	"os"

	"github.com/chainsafe/dao-governance/pkg/govctl"
)

func main() {
	if err := govctl.Execute(); err != nil {
		os.Exit(1)
	}
}
