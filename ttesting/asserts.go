// Package ttesting contains assertion helpers shared by the tests of the
// minimap packages.
package ttesting

import (
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func AssertEqualInt(t *testing.T, name string, got, want int) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		if got != want {
			t.Errorf("got %d; want %d", got, want)
		}
	})
}

func AssertEqualByte(t *testing.T, name string, got, want byte) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		if got != want {
			t.Errorf("got %#02x; want %#02x", got, want)
		}
	})
}

// AssertEqualRGBA compares two colors after converting both to color.RGBA.
func AssertEqualRGBA(t *testing.T, name string, got, want color.Color) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		g := color.RGBAModel.Convert(got).(color.RGBA)
		w := color.RGBAModel.Convert(want).(color.RGBA)
		if g != w {
			t.Errorf("got %+v; want %+v", g, w)
		}
	})
}

// AssertDiff fails when want and got differ, printing a cmp diff.
func AssertDiff(t *testing.T, name string, want, got interface{}, opts ...cmp.Option) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		if diff := cmp.Diff(want, got, opts...); diff != "" {
			t.Errorf("mismatch (-want+got):\n%v", diff)
		}
	})
}
