package main

import (
	"os"
	"testing"

	"github.com/hmizuno/helpmapper/internal/cmd"
)

func TestVersionVariables(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty string")
	}
	if BuildTime == "" {
		t.Error("BuildTime should not be empty string")
	}

	cmd.SetVersionInfo(Version, BuildTime)
}

func TestHelpCommand(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	cmd.SetVersionInfo(Version, BuildTime)

	os.Args = []string{"helpmapper", "--help"}
	if err := cmd.Execute(); err != nil {
		t.Errorf("Execute with --help should not return error, got: %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	cmd.SetVersionInfo("1.0.0-test", "2025-12-01T10:00:00Z")

	os.Args = []string{"helpmapper", "--version"}
	if err := cmd.Execute(); err != nil {
		t.Errorf("Execute with --version should not return error, got: %v", err)
	}
}
