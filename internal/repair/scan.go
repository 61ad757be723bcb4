package repair

// scanState is the lexical state left at the end of a pass.
type scanState struct {
	inString bool
	escaped  bool
}

// scan walks s byte by byte, tracking string and escape state, and calls
// visit for every structural byte ({ } [ ] ,) found outside a string.
// A backslash escapes the following byte whatever it is, inside or outside
// a string. Only ASCII bytes are structural, so multi-byte UTF-8 sequences
// pass through untouched.
func scan(s string, visit func(i int, c byte)) scanState {
	var st scanState
	for i := 0; i < len(s); i++ {
		c := s[i]
		if st.escaped {
			st.escaped = false
			continue
		}
		switch c {
		case '\\':
			st.escaped = true
			continue
		case '"':
			st.inString = !st.inString
			continue
		}
		if st.inString || visit == nil {
			continue
		}
		switch c {
		case '{', '}', '[', ']', ',':
			visit(i, c)
		}
	}
	return st
}
