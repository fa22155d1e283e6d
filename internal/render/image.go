package render

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	upperHalf = "▀"
	lowerHalf = "▄"

	// alpha below this is drawn as terminal background
	alphaCutoff = 128
)

// LoadImage decodes the image at path.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// cellSize picks the output size in terminal cells. Each cell holds two
// vertically stacked pixels, so a cell grid of w x h is w x 2h pixels.
func cellSize(b image.Rectangle, rows, cols, maxCols int) (int, int) {
	if rows <= 0 {
		rows = DefaultImgHeight
	}
	if cols <= 0 {
		if b.Dy() == 0 {
			cols = 1
		} else {
			cols = int(math.Round(float64(b.Dx()) * float64(rows*2) / float64(b.Dy())))
		}
	}
	if maxCols > 0 && cols > maxCols {
		cols = maxCols
	}
	if cols < 1 {
		cols = 1
	}
	return cols, rows
}

// DrawImage writes img as rows x cols half-block cells to w. Colors come
// from out's profile; transparent pixels are left unpainted.
func DrawImage(w io.Writer, out *termenv.Output, img image.Image, rows, cols, maxCols int) error {
	cols, rows = cellSize(img.Bounds(), rows, cols, maxCols)

	dst := image.NewNRGBA(image.Rect(0, 0, cols, rows*2))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	var b strings.Builder
	for y := 0; y < rows*2; y += 2 {
		for x := 0; x < cols; x++ {
			b.WriteString(cell(out, dst.NRGBAAt(x, y), dst.NRGBAAt(x, y+1)))
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func cell(out *termenv.Output, top, bottom color.NRGBA) string {
	topVisible := top.A >= alphaCutoff
	bottomVisible := bottom.A >= alphaCutoff

	switch {
	case topVisible && bottomVisible:
		return out.String(upperHalf).Foreground(out.Color(hex(top))).Background(out.Color(hex(bottom))).String()
	case topVisible:
		return out.String(upperHalf).Foreground(out.Color(hex(top))).String()
	case bottomVisible:
		return out.String(lowerHalf).Foreground(out.Color(hex(bottom))).String()
	default:
		return " "
	}
}

func hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
