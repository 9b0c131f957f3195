package analysis

// CountLines counts lines the way Python's str.splitlines does: \n, \r\n,
// \r and the other Unicode line boundaries each end a line, and a trailing
// terminator does not start a new one.
func CountLines(s string) int {
	n := 0
	pending := false
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		switch rs[i] {
		case '\r':
			if i+1 < len(rs) && rs[i+1] == '\n' {
				i++
			}
			n++
			pending = false
		case '\n', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
			n++
			pending = false
		default:
			pending = true
		}
	}
	if pending {
		n++
	}
	return n
}
