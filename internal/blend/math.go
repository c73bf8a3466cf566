package blend

// mulDiv255 returns a*b/255 rounded to nearest.
func mulDiv255(a, b byte) byte {
	t := uint16(a)*uint16(b) + 128
	return byte((t + t>>8) >> 8)
}

// clamp255 clamps a uint16 to byte range.
func clamp255(x uint16) byte {
	if x > 255 {
		return 255
	}
	return byte(x)
}

// addClamp adds two bytes, saturating at 255.
func addClamp(a, b byte) byte {
	return clamp255(uint16(a) + uint16(b))
}
