//go:build !fyne

package ui

import (
	"errors"
	"strings"
	"testing"
)

func TestRunWithoutToolkit(t *testing.T) {
	err := Run(Options{ModelPath: "main.yaml"})
	if !errors.Is(err, ErrNotBuilt) {
		t.Fatalf("Run() = %v, want ErrNotBuilt", err)
	}
	if !strings.Contains(err.Error(), "-tags fyne") {
		t.Fatalf("error should say how to rebuild: %q", err)
	}
}
