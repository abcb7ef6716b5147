// Package main — event-relay entry point (HTTP + WebSocket).
package main

import (
	"log"

	"github.com/evrelay/event-relay/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
