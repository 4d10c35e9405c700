package chunk

// DefaultSize is the display chunk length used by the chat widget.
const DefaultSize = 2000

// Split cuts text into contiguous pieces of at most size characters, in order.
// Lengths are counted in runes so that every piece stays valid UTF-8.
// Empty text yields no pieces; a non-positive size yields the whole text.
func Split(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		return []string{text}
	}

	chunks := make([]string, 0, len(text)/size+1)
	start, count := 0, 0
	for i := range text {
		if count == size {
			chunks = append(chunks, text[start:i])
			start, count = i, 0
		}
		count++
	}
	return append(chunks, text[start:])
}
