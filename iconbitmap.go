package main

import "strconv"

const builtinIconSize = 64

const (
	colorClear   uint32 = 0x00000000
	colorOutline uint32 = 0xFFE6E6E6
	colorGood    uint32 = 0xFF107C10
	colorFair    uint32 = 0xFFF7630C
	colorLow     uint32 = 0xFFC42B1C
	colorNetwork uint32 = 0xFF0078D4
	colorDim     uint32 = 0xFF6E7681
	colorText    uint32 = 0xFFFFFFFF
	colorShadow  uint32 = 0x80000000
)

const (
	digitPatternWidth  = 3
	digitPatternHeight = 5
)

var digitPatterns = [10][5]uint8{
	{0b111, 0b101, 0b101, 0b101, 0b111},
	{0b010, 0b110, 0b010, 0b010, 0b111},
	{0b111, 0b001, 0b111, 0b100, 0b111},
	{0b111, 0b001, 0b111, 0b001, 0b111},
	{0b101, 0b101, 0b111, 0b001, 0b001},
	{0b111, 0b100, 0b111, 0b001, 0b111},
	{0b111, 0b100, 0b111, 0b101, 0b111},
	{0b111, 0b001, 0b001, 0b001, 0b001},
	{0b111, 0b101, 0b111, 0b101, 0b111},
	{0b111, 0b101, 0b111, 0b001, 0b111},
}

// iconCanvas is a square ARGB bitmap, rows top-down.
type iconCanvas struct {
	size int
	pix  []uint32
}

func newIconCanvas(size int) *iconCanvas {
	return &iconCanvas{size: size, pix: make([]uint32, size*size)}
}

func (c *iconCanvas) set(x, y int, color uint32) {
	if x < 0 || y < 0 || x >= c.size || y >= c.size {
		return
	}
	c.pix[y*c.size+x] = color
}

func (c *iconCanvas) at(x, y int) uint32 {
	if x < 0 || y < 0 || x >= c.size || y >= c.size {
		return colorClear
	}
	return c.pix[y*c.size+x]
}

func (c *iconCanvas) fillRect(x0, y0, x1, y1 int, color uint32) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			c.set(x, y, color)
		}
	}
}

func (c *iconCanvas) strokeRect(x0, y0, x1, y1, width int, color uint32) {
	c.fillRect(x0, y0, x1, y0+width, color)
	c.fillRect(x0, y1-width, x1, y1, color)
	c.fillRect(x0, y0, x0+width, y1, color)
	c.fillRect(x1-width, y0, x1, y1, color)
}

func (c *iconCanvas) drawDigit(digit, x, y, block int, color uint32) {
	if digit < 0 || digit > 9 || block < 1 {
		return
	}
	pattern := digitPatterns[digit]
	for row := 0; row < digitPatternHeight; row++ {
		bits := pattern[row]
		for col := 0; col < digitPatternWidth; col++ {
			if (bits>>(digitPatternWidth-1-col))&1 == 1 {
				c.fillRect(x+col*block, y+row*block, x+(col+1)*block, y+(row+1)*block, color)
			}
		}
	}
}

func levelColor(level int) uint32 {
	switch {
	case level >= 50:
		return colorGood
	case level >= 20:
		return colorFair
	}
	return colorLow
}

// renderBuiltinIcon draws the substitute icon used when an asset file
// is missing or unreadable.
func renderBuiltinIcon(b BuiltinIcon, size int) *iconCanvas {
	if size < 16 {
		size = 16
	}
	c := newIconCanvas(size)
	if b.Kind == iconKindNetwork {
		drawNetworkGlyph(c, b.Label != "")
	} else {
		drawBatteryGlyph(c, b.Level)
	}
	return c
}

func drawBatteryGlyph(c *iconCanvas, level int) {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	s := c.size
	stroke := max(1, s/32)
	left, top := s/16, s/4
	right, bottom := s-s/8, s-s/4

	c.strokeRect(left, top, right, bottom, stroke, colorOutline)
	c.fillRect(right, top+(bottom-top)/3, right+s/16, bottom-(bottom-top)/3, colorOutline)

	inL, inT := left+stroke*2, top+stroke*2
	inR, inB := right-stroke*2, bottom-stroke*2
	fillW := (inR - inL) * level / 100
	c.fillRect(inL, inT, inL+fillW, inB, levelColor(level))

	text := strconv.Itoa(level)
	n := len(text)
	innerW, innerH := inR-inL, inB-inT
	block := min(innerH/(digitPatternHeight+1), innerW/(n*(digitPatternWidth+1)))
	if block < 1 {
		return
	}
	glyphW := digitPatternWidth * block
	total := n*glyphW + (n-1)*block
	x := inL + (innerW-total)/2
	y := inT + (innerH-digitPatternHeight*block)/2
	for i, ch := range text {
		ox := x + i*(glyphW+block)
		c.drawDigit(int(ch-'0'), ox+1, y+1, block, colorShadow)
		c.drawDigit(int(ch-'0'), ox, y, block, colorText)
	}
}

func drawNetworkGlyph(c *iconCanvas, known bool) {
	color := colorNetwork
	if !known {
		color = colorDim
	}
	s := c.size
	barW := s / 6
	gap := s / 12
	base := s - s/8
	x := (s - (3*barW + 2*gap)) / 2
	for i := 0; i < 3; i++ {
		h := (s * (i + 1)) / 4
		c.fillRect(x, base-h, x+barW, base, color)
		x += barW + gap
	}
}
