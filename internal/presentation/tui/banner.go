package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the Canopy ASCII banner followed by the version.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	// Greens, top of the canopy to the trunk.
	lines := []struct {
		text  string
		color string
	}{
		{"   ___ __ _ _ __   ___  _ __  _   _ ", "#86efac"},
		{"  / __/ _` | '_ \\ / _ \\| '_ \\| | | |", "#4ade80"},
		{" | (_| (_| | | | | (_) | |_) | |_| |", "#22c55e"},
		{"  \\___\\__,_|_| |_|\\___/| .__/ \\__, |", "#16a34a"},
		{"                       |_|    |___/ ", "#15803d"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
