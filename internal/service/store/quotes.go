package store

// dropUnterminated removes the physical lines that open a quoted field which
// is never closed before the end of data. Removing a line lets the lines after
// it parse as records of their own. It returns the remaining bytes and the
// dropped lines.
func dropUnterminated(data []byte) ([]byte, []string) {
	var dropped []string
	for {
		start, open := unterminatedRecord(data)
		if !open {
			return data, dropped
		}

		end := len(data)
		next := end
		for i := start; i < len(data); i++ {
			if data[i] == '\n' {
				end, next = i, i+1
				break
			}
		}
		dropped = append(dropped, string(data[start:end]))

		cleaned := make([]byte, 0, len(data)-(next-start))
		cleaned = append(cleaned, data[:start]...)
		cleaned = append(cleaned, data[next:]...)
		data = cleaned
	}
}

// unterminatedRecord scans data as CSV and reports whether it ends inside a
// quoted field, together with the offset of the record holding that field.
// A quote only opens a field at the start of the field.
func unterminatedRecord(data []byte) (int, bool) {
	recordStart := 0
	inQuote := false
	fieldStart := true
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inQuote {
			if c == '"' {
				if i+1 < len(data) && data[i+1] == '"' {
					i++
					continue
				}
				inQuote = false
			}
			continue
		}
		switch c {
		case '"':
			inQuote = fieldStart
			fieldStart = false
		case ',':
			fieldStart = true
		case '\n':
			fieldStart = true
			recordStart = i + 1
		case '\r':
		default:
			fieldStart = false
		}
	}
	return recordStart, inQuote
}
