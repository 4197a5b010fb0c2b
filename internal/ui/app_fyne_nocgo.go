//go:build fyne && !cgo

package ui

import "fmt"

// Run informs the user that Fyne UI requires cgo (OpenGL) and a C toolchain.
// This stub is compiled when the build uses -tags fyne but CGO is disabled.
func Run(_ Options) error {
	return fmt.Errorf("%w: the fyne toolkit needs cgo for OpenGL; run CGO_ENABLED=1 go run -tags fyne ./cmd/cellsorter ui [model-file]", ErrNotBuilt)
}
