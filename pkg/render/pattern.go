package render

// 75% SMPTE color bars in BGRA order, left to right.
var barColors = [7][4]byte{
	{191, 191, 191, 255}, // white
	{0, 191, 191, 255},   // yellow
	{191, 191, 0, 255},   // cyan
	{0, 191, 0, 255},     // green
	{191, 0, 191, 255},   // magenta
	{0, 0, 191, 255},     // red
	{191, 0, 0, 255},     // blue
}

// drawBars fills pixels with vertical color bars over the top part of
// the frame and a moving white block along the bottom strip. The block
// advances one step per frame so receivers can spot stalls at a glance.
func drawBars(pixels []byte, width, height int, frame int64) {
	barWidth := width / len(barColors)
	if barWidth == 0 {
		barWidth = 1
	}
	stripTop := height * 3 / 4

	for y := 0; y < stripTop; y++ {
		row := y * width * 4
		for x := 0; x < width; x++ {
			bar := x / barWidth
			if bar >= len(barColors) {
				bar = len(barColors) - 1
			}
			c := barColors[bar]
			o := row + x*4
			pixels[o] = c[0]
			pixels[o+1] = c[1]
			pixels[o+2] = c[2]
			pixels[o+3] = c[3]
		}
	}

	blockWidth := width / 10
	if blockWidth == 0 {
		blockWidth = 1
	}
	span := width - blockWidth
	if span <= 0 {
		span = 1
	}
	pos := int(frame) % (2 * span)
	if pos >= span {
		pos = 2*span - pos // bounce back
	}

	for y := stripTop; y < height; y++ {
		row := y * width * 4
		for x := 0; x < width; x++ {
			o := row + x*4
			v := byte(16)
			if x >= pos && x < pos+blockWidth {
				v = 235
			}
			pixels[o] = v
			pixels[o+1] = v
			pixels[o+2] = v
			pixels[o+3] = 255
		}
	}
}
