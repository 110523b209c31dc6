// png.go - PNG file writer.
package generator

import (
	"image"
	"io"

	"github.com/disintegration/imaging"

	"github.com/xob0t/storycard/internal/util"
)

// writePNG encodes img to a PNG file at the given path. The encoder writes
// to a temporary file that only replaces path after a successful encode, so
// a failed write never leaves a truncated image behind.
func writePNG(output string, img image.Image) error {
	err := util.WriteFileAtomic(output, func(w io.Writer) error {
		return imaging.Encode(w, img, imaging.PNG)
	})
	if err != nil {
		return outputError("write", output, err)
	}
	return nil
}
