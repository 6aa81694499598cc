package main

import (
	"os"

	"github.com/aurumchain/go-aurum/log"
)

func main() {
	if err := Execute(); err != nil {
		log.Global.WithField("error", err).Error("Command failed")
		os.Exit(1)
	}
}
