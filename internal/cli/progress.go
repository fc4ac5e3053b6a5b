package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// progressBar tracks files checked so far.
type progressBar struct {
	bar *progressbar.ProgressBar
}

func newProgressBar(w io.Writer, count int) *progressBar {
	bar := progressbar.NewOptions(count,
		progressbar.OptionSetDescription(checkDescription(0)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(w),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &progressBar{bar: bar}
}

func checkDescription(problems int) string {
	if problems == 0 {
		return color.CyanString("Checking fixtures: ") + color.GreenString("[problems: 0]")
	}
	return color.CyanString("Checking fixtures: ") + color.RedString("[problems: %d]", problems)
}

// Advance marks one more file as checked.
func (p *progressBar) Advance(problems int) {
	p.bar.Describe(checkDescription(problems))
	p.bar.Add(1)
}

func (p *progressBar) Finish() {
	p.bar.Finish()
}
