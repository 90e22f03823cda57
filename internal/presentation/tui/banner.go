package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"  _____     _     _      ", "#818cf8"},
	{" |  ___|_ _| |__ | | ___ ", "#a78bfa"},
	{" | |_ / _` | '_ \\| |/ _ \\", "#c084fc"},
	{" |  _| (_| | |_) | |  __/", "#e879f9"},
	{" |_|  \\__,_|_.__/|_|\\___|", "#f472b6"},
}

// PrintBanner writes the Fable banner to w, colored when w is a terminal.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	if !IsTerminal(w) {
		p = termenv.Ascii
	}

	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, out.String(line.text).Foreground(p.Color(line.color)))
	}
	fmt.Fprintln(w)
}
