package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the donorline banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"      _                       _ _", "#34d399"},
		{"   __| | ___  _ __   ___  _ __| (_)_ __   ___", "#2dd4bf"},
		{"  / _` |/ _ \\| '_ \\ / _ \\| '__| | | '_ \\ / _ \\", "#22d3ee"},
		{" | (_| | (_) | | | | (_) | |  | | | | | |  __/", "#38bdf8"},
		{"  \\__,_|\\___/|_| |_|\\___/|_|  |_|_|_| |_|\\___|", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  "+version).Faint())
	fmt.Fprintln(w)
}
