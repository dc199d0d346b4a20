package progress

import "fmt"
import "io"
import "strings"

import "github.com/charmbracelet/lipgloss"

type style struct {
	filled  lipgloss.Style
	percent lipgloss.Style
	header  lipgloss.Style
}

func newStyle(out io.Writer) *style {
	r := lipgloss.NewRenderer(out)
	return &style{
		filled:  r.NewStyle().Foreground(lipgloss.Color("42")),
		percent: r.NewStyle().Bold(true),
		header:  r.NewStyle().Foreground(lipgloss.Color("39")),
	}
}

func progressBar(progress int) string {
	return strings.Repeat("=", progress)
}

func emptySpace(space int) string {
	return strings.Repeat(" ", space)
}

// averageLoss is the mean loss per sample seen so far in the epoch.
func averageLoss(s Signal) float64 {
	if s.CurrentSample == 0 {
		return s.SampleLoss
	}
	return s.EpochLoss / float64(s.CurrentSample)
}

func (b *Bar) bar(f float64) string {
	progress := int(f * float64(b.width))
	if progress > b.width {
		progress = b.width
	}
	filled := progressBar(progress)
	percent := fmt.Sprintf("%5.1f%%", f*100)
	if b.style != nil {
		filled = b.style.filled.Render(filled)
		percent = b.style.percent.Render(percent)
	}
	return "[" + filled + emptySpace(b.width-progress) + "] " + percent
}

func (b *Bar) header(s Signal) string {
	h := fmt.Sprintf("Epoch %d/%d", s.CurrentEpoch, s.TotalEpochs)
	if b.style != nil {
		h = b.style.header.Render(h)
	}
	return h
}

func (b *Bar) render(s Signal, complete bool) {
	if len(b.workers) == 1 {
		b.renderSingleBar(s, complete)
	} else {
		b.renderMultiBar(s)
	}
}

// renderSingleBar overwrites the current terminal line.
func (b *Bar) renderSingleBar(s Signal, complete bool) {
	line := fmt.Sprintf("\r%s %s loss: %.6f", b.header(s), b.bar(b.workers[0]), averageLoss(s))
	if complete {
		line += "\n"
	}
	b.write(line)
}

// renderMultiBar writes one block: a header line and one bar per worker.
func (b *Bar) renderMultiBar(s Signal) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s loss: %.6f\n", b.header(s), b.epochLoss(s))
	for i, f := range b.workers {
		fmt.Fprintf(&sb, "  worker %d %s\n", i, b.bar(f))
	}
	b.write(sb.String())
}
