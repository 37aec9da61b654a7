// Package imginfo reads image dimensions straight from container headers,
// without decoding pixel data. Supported: JPEG, PNG, GIF, WebP (lossy VP8).
package imginfo

const (
	// AspectLandscape is the aspect ratio requested for landscape or
	// undetectable source images.
	AspectLandscape = "16:9"
	// AspectPortrait is requested when the source is taller than wide.
	AspectPortrait = "9:16"
)

// SniffDimensions extracts width and height from the first bytes of an image
// file. ok is false when the signature is unrecognized, the header is
// truncated, or either dimension reads as zero.
func SniffDimensions(data []byte) (width, height int, ok bool) {
	switch {
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8:
		width, height = jpegDimensions(data)
	case len(data) >= 24 && data[0] == 0x89 && data[1] == 'P' && data[2] == 'N' && data[3] == 'G':
		// IHDR is always the first chunk: width/height are big-endian
		// 32-bit values at fixed offsets 16 and 20.
		width = int(data[16])<<24 | int(data[17])<<16 | int(data[18])<<8 | int(data[19])
		height = int(data[20])<<24 | int(data[21])<<16 | int(data[22])<<8 | int(data[23])
	case len(data) >= 10 && data[0] == 'G' && data[1] == 'I' && data[2] == 'F':
		width = int(data[6]) | int(data[7])<<8
		height = int(data[8]) | int(data[9])<<8
	case len(data) >= 32 && data[0] == 'R' && data[1] == 'I' && data[2] == 'F' && data[3] == 'F':
		if data[12] == 'V' && data[13] == 'P' && data[14] == '8' {
			// Lossy VP8 frame header: 14-bit dimensions packed into
			// three little-endian bytes each.
			width = ((int(data[26]) | int(data[27])<<8 | int(data[28])<<16) & 0x3FFF) + 1
			height = ((int(data[29]) | int(data[30])<<8 | int(data[31])<<16) & 0x3FFF) + 1
		}
	}

	if width <= 0 || height <= 0 {
		return 0, 0, false
	}
	return width, height, true
}

// jpegDimensions walks the marker segments looking for a baseline (0xC0) or
// progressive (0xC2) start-of-frame, which carries height then width as
// big-endian 16-bit values.
func jpegDimensions(data []byte) (width, height int) {
	offset := 2
	for offset+8 < len(data) {
		if data[offset] != 0xFF {
			break
		}
		marker := data[offset+1]
		if marker == 0xC0 || marker == 0xC2 {
			height = int(data[offset+5])<<8 | int(data[offset+6])
			width = int(data[offset+7])<<8 | int(data[offset+8])
			break
		}
		offset += 2 + (int(data[offset+2])<<8 | int(data[offset+3]))
	}
	return width, height
}

// AspectRatio maps raw image bytes to the generation aspect ratio: portrait
// when height exceeds width, landscape otherwise or when dimensions cannot
// be determined.
func AspectRatio(data []byte) string {
	width, height, ok := SniffDimensions(data)
	if ok && height > width {
		return AspectPortrait
	}
	return AspectLandscape
}
