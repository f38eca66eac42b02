//go:build !windows

package imageprint

import (
	"fmt"
	"image"

	"github.com/BourgeoisBear/rasterm"
	"github.com/andybons/gogif"
)

// printRasTerm draws an image using the RasTerm library, falling back to
// true color cells when the terminal supports no image protocol.
func (p *Printer) printRasTerm(i image.Image) error {
	var err error
	switch {
	case rasterm.IsTermKitty():
		err = rasterm.Settings{}.KittyWriteImage(p.W, i)
	case rasterm.IsTermItermWez():
		err = rasterm.Settings{}.ItermWriteImage(p.W, i)
	default:
		if capable, serr := rasterm.IsSixelCapable(); capable && serr == nil {
			palettedImage := image.NewPaletted(i.Bounds(), nil)
			quantizer := gogif.MedianCutQuantizer{NumColor: 64}
			quantizer.Quantize(palettedImage, i.Bounds(), i, image.Point{})
			err = rasterm.Settings{}.SixelWriteImage(p.W, palettedImage)
		} else {
			p.trueColorCells(i)
			return nil
		}
	}
	fmt.Fprint(p.W, "\n")
	return err
}
