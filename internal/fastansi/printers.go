package fastansi

import (
	"fmt"
	"io"
)

// Like the rest of "fast"ansi, this is just a weird utility thing, to create these fancy multiline TUI statuses. BUT with minimal code.
// Line 0 is the one right above the cursor. Reserve lines with PushLines before drawing into them.
// A plain printer (pipes, NO_COLOR) skips the cursor dance and prints every status on its own line.
type StatusPrinter struct {
	w     io.Writer
	plain bool
	last  map[int]string
}

func NewStatusPrinter(w io.Writer, plain bool) *StatusPrinter {
	return &StatusPrinter{w: w, plain: plain, last: map[int]string{}}
}

func (sp *StatusPrinter) Status(height int, str ...any) {
	text := fmt.Sprint(str...)
	if sp.plain {
		if sp.last[height] != text && text != "" {
			fmt.Fprintln(sp.w, text)
		}
		sp.last[height] = text
		return
	}
	CR(sp.w)
	Up(sp.w, height+1)
	EraseLine(sp.w)
	fmt.Fprint(sp.w, text)
	Down(sp.w, height+1)
	CR(sp.w)
}

func (sp *StatusPrinter) PushLines(lines int) {
	if sp.plain {
		return
	}
	for range lines {
		fmt.Fprint(sp.w, "\n")
	}
}

// Println writes below the status lines.
func (sp *StatusPrinter) Println(a ...any) {
	fmt.Fprintln(sp.w, a...)
}
