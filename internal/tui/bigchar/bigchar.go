// Package bigchar renders short numeric strings as large block art using
// half-block characters, so the headline score reads from across the room.
package bigchar

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Common locations of a bold sans-serif font.
var fontPaths = []string{
	// Linux
	"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/TTF/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf",
	"/usr/share/fonts/liberation-sans/LiberationSans-Bold.ttf",
	// macOS
	"/System/Library/Fonts/Helvetica.ttc",
	"/Library/Fonts/Arial Bold.ttf",
	"/System/Library/Fonts/Supplemental/Arial Bold.ttf",
	// Windows
	"C:\\Windows\\Fonts\\arialbd.ttf",
	"C:\\Windows\\Fonts\\segoeuib.ttf",
}

const (
	faceSize  = 64
	padding   = 4
	threshold = 40
	cacheMax  = 512
)

var (
	mu       sync.Mutex
	once     sync.Once
	face     font.Face
	rendered = make(map[cacheKey]string)
)

type cacheKey struct {
	text string
	rows int
}

// LoadFont replaces the search over system locations with a specific font
// file. It returns false if the file cannot be parsed.
func LoadFont(path string) bool {
	f := loadFace(path)
	if f == nil {
		return false
	}
	once.Do(func() {})

	mu.Lock()
	defer mu.Unlock()
	face = f
	rendered = make(map[cacheKey]string)
	return true
}

func loadFace(path string) font.Face {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	opts := &opentype.FaceOptions{Size: faceSize, DPI: 72}

	// Try parsing as font collection first
	if coll, err := opentype.ParseCollection(data); err == nil && coll.NumFonts() > 0 {
		if fnt, err := coll.Font(0); err == nil {
			if f, err := opentype.NewFace(fnt, opts); err == nil {
				return f
			}
		}
	}

	if fnt, err := opentype.Parse(data); err == nil {
		if f, err := opentype.NewFace(fnt, opts); err == nil {
			return f
		}
	}
	return nil
}

func systemFace() font.Face {
	once.Do(func() {
		for _, path := range fontPaths {
			if f := loadFace(path); f != nil {
				mu.Lock()
				face = f
				mu.Unlock()
				return
			}
		}
	})

	mu.Lock()
	defer mu.Unlock()
	return face
}

// IsAvailable reports whether a font was found.
func IsAvailable() bool {
	return systemFace() != nil
}

// Render draws text rows terminal lines tall. The width follows the glyphs'
// proportions. It returns "" when no font is available.
func Render(text string, rows int) string {
	f := systemFace()
	if f == nil || text == "" || rows <= 0 {
		return ""
	}

	key := cacheKey{text: text, rows: rows}
	mu.Lock()
	if cached, ok := rendered[key]; ok {
		mu.Unlock()
		return cached
	}
	mu.Unlock()

	out := render(f, text, rows)

	mu.Lock()
	if len(rendered) >= cacheMax {
		rendered = make(map[cacheKey]string)
	}
	rendered[key] = out
	mu.Unlock()

	return out
}

func render(f font.Face, text string, rows int) string {
	mu.Lock()
	advance := font.MeasureString(f, text).Ceil()
	ascent := f.Metrics().Ascent.Ceil()
	mu.Unlock()

	srcWidth := advance + padding*2
	srcHeight := ascent + padding*2

	src := image.NewGray(image.Rect(0, 0, srcWidth, srcHeight))
	draw.Draw(src, src.Bounds(), &image.Uniform{color.Black}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  src,
		Src:  image.White,
		Face: f,
		Dot:  fixed.P(padding, padding+ascent),
	}
	// opentype faces are not safe for concurrent use
	mu.Lock()
	d.DrawString(text)
	mu.Unlock()

	// Half-blocks make each cell two pixels tall, so a square pixel grid
	// keeps the glyph proportions.
	dstHeight := rows * 2
	cols := srcWidth * dstHeight / srcHeight
	if cols < 1 {
		cols = 1
	}

	return toHalfBlocks(scaleDown(src, cols, dstHeight), cols, rows)
}

// scaleDown scales a grayscale image using area averaging
func scaleDown(src *image.Gray, dstWidth, dstHeight int) *image.Gray {
	srcWidth := src.Bounds().Max.X
	srcHeight := src.Bounds().Max.Y

	dst := image.NewGray(image.Rect(0, 0, dstWidth, dstHeight))

	xRatio := float64(srcWidth) / float64(dstWidth)
	yRatio := float64(srcHeight) / float64(dstHeight)

	for dy := 0; dy < dstHeight; dy++ {
		sy1 := int(float64(dy) * yRatio)
		sy2 := min(int(float64(dy+1)*yRatio), srcHeight)
		for dx := 0; dx < dstWidth; dx++ {
			sx1 := int(float64(dx) * xRatio)
			sx2 := min(int(float64(dx+1)*xRatio), srcWidth)

			var sum, count int
			for sy := sy1; sy < sy2; sy++ {
				for sx := sx1; sx < sx2; sx++ {
					sum += int(src.GrayAt(sx, sy).Y)
					count++
				}
			}
			if count > 0 {
				dst.SetGray(dx, dy, color.Gray{Y: uint8(sum / count)})
			}
		}
	}

	return dst
}

func toHalfBlocks(img *image.Gray, cols, rows int) string {
	lit := func(x, y int) bool {
		if x >= img.Bounds().Max.X || y >= img.Bounds().Max.Y {
			return false
		}
		return img.GrayAt(x, y).Y > threshold
	}

	lines := make([]string, rows)
	var line strings.Builder
	for row := 0; row < rows; row++ {
		line.Reset()
		for col := 0; col < cols; col++ {
			top, bottom := lit(col, row*2), lit(col, row*2+1)
			switch {
			case top && bottom:
				line.WriteRune('█')
			case top:
				line.WriteRune('▀')
			case bottom:
				line.WriteRune('▄')
			default:
				line.WriteRune(' ')
			}
		}
		lines[row] = line.String()
	}
	return strings.Join(lines, "\n")
}
