package document

import "unicode/utf8"

// UTF16Len returns the number of UTF-16 code units needed to encode s.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUTF16Len(r)
	}
	return n
}

// UTF16Column converts a byte offset within s into a UTF-16 column.
func UTF16Column(s string, byteOffset int) int {
	if byteOffset > len(s) {
		byteOffset = len(s)
	}
	if byteOffset <= 0 {
		return 0
	}
	return UTF16Len(s[:byteOffset])
}

// ByteOffset converts a UTF-16 column within s into a byte offset, clamping to len(s).
func ByteOffset(s string, column int) int {
	if column <= 0 {
		return 0
	}
	units := 0
	for i, r := range s {
		if units >= column {
			return i
		}
		units += runeUTF16Len(r)
	}
	return len(s)
}

func runeUTF16Len(r rune) int {
	if r == utf8.RuneError || r < 0x10000 {
		return 1
	}
	return 2
}
