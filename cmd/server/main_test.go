package main

import (
	"fmt"
	"testing"
)

func TestLogBufferKeepsLastLines(t *testing.T) {
	lb := &LogBuffer{}
	for i := 0; i < maxLogLines+5; i++ {
		fmt.Fprintf(lb, "line %d\n", i)
	}

	logs := lb.GetLogs()
	if len(logs) != maxLogLines {
		t.Fatalf("expected %d lines, got %d", maxLogLines, len(logs))
	}
	if logs[0] != "line 5\n" {
		t.Fatalf("oldest line = %q", logs[0])
	}

	logs[0] = "mutated"
	if lb.GetLogs()[0] == "mutated" {
		t.Fatal("GetLogs must return a copy")
	}
}

func TestOrDefault(t *testing.T) {
	if orDefault("", "sox") != "sox" || orDefault("/usr/bin/sox", "sox") != "/usr/bin/sox" {
		t.Fatal("unexpected fallback")
	}
}
