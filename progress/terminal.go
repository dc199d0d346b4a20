package progress

import "io"

// room left on the line for the epoch header, percentage and loss
const lineOverhead = 45

// TerminalOptions styles the bar and fits its width when out is a terminal.
// For pipes and files it returns nil and the plain default layout is used.
func TerminalOptions(out io.Writer) []Option {
	cols, ok := terminalColumns(out)
	if !ok {
		return nil
	}
	width := cols - lineOverhead
	if width > DefaultBarWidth {
		width = DefaultBarWidth
	}
	if width < 10 {
		width = 10
	}
	return []Option{WithWidth(width), WithStyle()}
}
