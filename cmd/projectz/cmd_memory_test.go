package main

import (
	"testing"
)

func TestMemoryRemoveCommandWired(t *testing.T) {
	for _, c := range memoryCmd.Commands() {
		if c.Name() == "remove" {
			return
		}
	}
	t.Fatal("memory command should expose a remove subcommand")
}
