package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"runtime"
)

const iconSize = 64

var (
	iconBackground = color.RGBA{R: 30, G: 30, B: 30, A: 255}
	iconForeground = color.RGBA{R: 220, G: 40, B: 40, A: 255}
)

// iconBytes renders the tray icon: a red power symbol on a dark square.
// Windows wants an .ico container; everywhere else takes the PNG directly.
func iconBytes() []byte {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	c := iconSize / 2
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			img.Set(x, y, iconBackground)
			dx, dy := x-c, y-c
			d2 := dx*dx + dy*dy
			ring := d2 >= 18*18 && d2 <= 24*24 && !(dy < 0 && dx > -8 && dx < 8)
			bar := dx >= -3 && dx <= 3 && y >= 8 && y <= c
			if ring || bar {
				img.Set(x, y, iconForeground)
			}
		}
	}

	var buf bytes.Buffer
	// Encoding into memory cannot fail for a valid RGBA image.
	_ = png.Encode(&buf, img)
	if runtime.GOOS == "windows" {
		return wrapICO(buf.Bytes())
	}
	return buf.Bytes()
}

// wrapICO embeds a PNG in a single-image ICO container.
func wrapICO(pngData []byte) []byte {
	const headerLen = 6 + 16
	var buf bytes.Buffer
	le := binary.LittleEndian

	_ = binary.Write(&buf, le, [3]uint16{0, 1, 1}) // reserved, type icon, one image
	buf.WriteByte(iconSize)
	buf.WriteByte(iconSize)
	buf.WriteByte(0) // palette size
	buf.WriteByte(0) // reserved
	_ = binary.Write(&buf, le, uint16(1))  // colour planes
	_ = binary.Write(&buf, le, uint16(32)) // bits per pixel
	_ = binary.Write(&buf, le, uint32(len(pngData)))
	_ = binary.Write(&buf, le, uint32(headerLen))
	buf.Write(pngData)
	return buf.Bytes()
}
