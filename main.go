package main

import (
	"log"

	"github.com/MyelinBots/resellboost-go/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatalf("resellboost: %v", err)
	}
}
