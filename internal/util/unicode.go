package util

// DecodeRar3Unicode rebuilds a RAR 3.x/4.x unicode file name. asciiPart is the
// name field up to the first NUL and encoded is everything after it. The
// encoded stream starts with a high byte, then carries 2-bit opcodes packed in
// flag bytes (most significant pair first):
//
//	0: one byte, high byte zero
//	1: one byte combined with the stored high byte
//	2: two bytes, little endian
//	3: a run copied from asciiPart, optionally shifted by a correction byte
func DecodeRar3Unicode(asciiPart, encoded []byte) string {
	if len(encoded) == 0 {
		return string(asciiPart)
	}
	maxLen := len(asciiPart) + 1 + len(encoded)
	out := make([]rune, 0, maxLen)
	pos := 0
	highByte := rune(encoded[pos])
	pos++
	var flags byte
	flagBits := 0
	for pos < len(encoded) && len(out) < maxLen {
		if flagBits == 0 {
			flags = encoded[pos]
			pos++
			flagBits = 8
			if pos >= len(encoded) {
				break
			}
		}
		switch flags >> 6 {
		case 0:
			out = append(out, rune(encoded[pos]))
			pos++
		case 1:
			out = append(out, rune(encoded[pos])|highByte<<8)
			pos++
		case 2:
			if pos+1 >= len(encoded) {
				return string(out)
			}
			out = append(out, rune(encoded[pos])|rune(encoded[pos+1])<<8)
			pos += 2
		case 3:
			length := int(encoded[pos])
			pos++
			if length&0x80 != 0 {
				if pos >= len(encoded) {
					return string(out)
				}
				correction := encoded[pos]
				pos++
				for n := length&0x7F + 2; n > 0 && len(out) < len(asciiPart); n-- {
					out = append(out, rune(asciiPart[len(out)]+correction)|highByte<<8)
				}
			} else {
				for n := length + 2; n > 0 && len(out) < len(asciiPart); n-- {
					out = append(out, rune(asciiPart[len(out)]))
				}
			}
		}
		flags <<= 2
		flagBits -= 2
	}
	return string(out)
}
