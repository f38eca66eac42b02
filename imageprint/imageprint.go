// Package imageprint prints floor rasters on a terminal. UNSUPPORTED debug package.
//
// This package has an API with no stability guarantees.
package imageprint

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	ic "image/color"
	"image/png"
	"io"

	"github.com/gookit/color"
)

// Mode selects how pixels reach the terminal.
type Mode int

const (
	TrueColor Mode = iota // 24-bit background escapes
	Color256              // gookit/color, downgraded to what the terminal supports
	NoColor               // brightness as ascii art
	ITerm                 // iTerm2 inline image
	RasTerm               // kitty, iTerm/WezTerm or sixel, whichever the terminal speaks
)

// Printer writes images to a terminal.
type Printer struct {
	W    io.Writer
	Mode Mode

	// Blanks paints two spaces per pixel instead of ascii shading.
	Blanks bool
}

func (p *Printer) shade(col ic.Color) {
	cR, cG, cB, cA := col.RGBA()
	if cA == 0 {
		fmt.Fprint(p.W, "\x1b[0m  ")
		return
	}
	r, g, b := uint8(cR>>8), uint8(cG>>8), uint8(cB>>8)

	cell := "  "
	if !p.Blanks {
		a := ((cR + cG + cB) / 3) >> 8
		switch {
		case a < 32:
			cell = ".."
		case a < 64:
			cell = "--"
		case a < 128:
			cell = "=="
		default:
			cell = "##"
		}
	}

	switch p.Mode {
	case NoColor:
		fmt.Fprint(p.W, cell)
	case Color256:
		fmt.Fprint(p.W, color.RGB(r, g, b, true).Sprint(cell))
	default:
		fmt.Fprintf(p.W, "\x1b[48;2;%d;%d;%dm%s\x1b[0m", r, g, b, cell)
	}
}

func (p *Printer) cells(i image.Image) {
	for y := i.Bounds().Min.Y; y < i.Bounds().Max.Y; y++ {
		for x := i.Bounds().Min.X; x < i.Bounds().Max.X; x++ {
			p.shade(i.At(x, y))
		}
		if p.Mode != NoColor {
			fmt.Fprint(p.W, "\x1b[0m")
		}
		fmt.Fprint(p.W, "\n")
	}
}

// Print draws the image in the printer's mode.
func (p *Printer) Print(i image.Image) error {
	switch p.Mode {
	case ITerm:
		return p.printITerm(i, "floor.png")
	case RasTerm:
		return p.printRasTerm(i)
	default:
		p.cells(i)
		return nil
	}
}

// printITerm draws an image using iTerm2's escape sequences.
//
// https://www.iterm2.com/documentation-images.html
func (p *Printer) printITerm(i image.Image, fn string) error {
	name := base64.StdEncoding.EncodeToString([]byte(fn))
	b := &bytes.Buffer{}
	bEnc := base64.NewEncoder(base64.StdEncoding, b)
	if err := png.Encode(bEnc, i); err != nil {
		return err
	}
	bEnc.Close()
	_, err := fmt.Fprintf(p.W, "\n\033]1337;File=name=%s;inline=1;size=%d,width=%dpx;height=%dpx:%s\a\n", name, b.Len(), i.Bounds().Dx(), i.Bounds().Dy(), b.String())
	return err
}

func (p *Printer) trueColorCells(i image.Image) {
	tc := *p
	tc.Mode = TrueColor
	tc.cells(i)
}
