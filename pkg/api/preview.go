package api

import (
	"errors"

	"github.com/yavik-kapadia/HTML2NDI/pkg/thumb"
)

var errNoFrame = errors.New("api: no frame available")

// framePreview encodes the most recently submitted frame as a JPEG no
// wider than maxWidth. The pump keeps pacing while the snapshot is
// taken.
func (a *API) framePreview(maxWidth, quality int) ([]byte, error) {
	pixels, w, h, ok := a.deps.Pump.Peek()
	if !ok {
		return nil, errNoFrame
	}
	return thumb.EncodeJPEG(pixels, w, h, maxWidth, quality)
}
