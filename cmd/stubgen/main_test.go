package main

import "testing"

func TestParseScripts(t *testing.T) {
	scripts := parseScripts(" 12:start, 13:no recipes match ,14:flaky3, 15, bad:start, 16:flaky")

	if !scripts[12].FailStart {
		t.Fatalf("plan 12 should fail on start")
	}
	if got := scripts[13].FailJob; got != "no recipes match" {
		t.Fatalf("plan 13 fail job = %q", got)
	}
	if got := scripts[14].FlakyPolls; got != 3 {
		t.Fatalf("plan 14 flaky polls = %d, want 3", got)
	}
	if got := scripts[15].FailJob; got != "generation failed" {
		t.Fatalf("plan 15 fail job = %q, want default message", got)
	}
	if got := scripts[16].FlakyPolls; got != 2 {
		t.Fatalf("plan 16 flaky polls = %d, want 2", got)
	}
	if len(scripts) != 5 {
		t.Fatalf("scripts = %d, want 5", len(scripts))
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("STUBGEN_STEPS", "7")
	if got := getEnvInt("STUBGEN_STEPS", 3); got != 7 {
		t.Fatalf("getEnvInt = %d, want 7", got)
	}
	t.Setenv("STUBGEN_STEPS", "x")
	if got := getEnvInt("STUBGEN_STEPS", 3); got != 3 {
		t.Fatalf("getEnvInt = %d, want fallback 3", got)
	}
}
