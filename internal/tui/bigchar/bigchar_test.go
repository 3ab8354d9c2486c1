package bigchar

import (
	"image"
	"image/color"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestToHalfBlocks(t *testing.T) {
	Convey("Given a 2x4 image", t, func() {
		img := image.NewGray(image.Rect(0, 0, 2, 4))
		img.SetGray(0, 0, color.Gray{Y: 255}) // top of cell (0,0)
		img.SetGray(1, 1, color.Gray{Y: 255}) // bottom of cell (1,0)
		img.SetGray(0, 2, color.Gray{Y: 255}) // both halves of cell (0,1)
		img.SetGray(0, 3, color.Gray{Y: 255})

		Convey("Each cell covers two vertical pixels", func() {
			So(toHalfBlocks(img, 2, 2), ShouldEqual, "▀▄\n█ ")
		})

		Convey("Dim pixels stay blank", func() {
			dim := image.NewGray(image.Rect(0, 0, 1, 2))
			dim.SetGray(0, 0, color.Gray{Y: threshold})
			So(toHalfBlocks(dim, 1, 1), ShouldEqual, " ")
		})
	})
}

func TestScaleDown(t *testing.T) {
	Convey("Given a uniformly lit image", t, func() {
		src := image.NewGray(image.Rect(0, 0, 8, 8))
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				src.SetGray(x, y, color.Gray{Y: 200})
			}
		}

		Convey("Area averaging keeps the brightness", func() {
			dst := scaleDown(src, 2, 2)
			So(dst.GrayAt(0, 0).Y, ShouldEqual, uint8(200))
			So(dst.GrayAt(1, 1).Y, ShouldEqual, uint8(200))
		})
	})
}

func TestRender(t *testing.T) {
	Convey("Given the system font search", t, func() {
		Convey("Empty input renders nothing", func() {
			So(Render("", 4), ShouldEqual, "")
			So(Render("82.3", 0), ShouldEqual, "")
		})

		Convey("A score renders to the requested height when a font exists", func() {
			out := Render("82.3", 4)
			if !IsAvailable() {
				So(out, ShouldEqual, "")
				return
			}
			lines := strings.Split(out, "\n")
			So(len(lines), ShouldEqual, 4)
			So(out, ShouldContainSubstring, "█")
			So(Render("82.3", 4), ShouldEqual, out)
		})
	})
}
