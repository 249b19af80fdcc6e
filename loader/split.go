package loader

import "unicode"

// Default splitter geometry, in characters.
const (
	DefaultChunkSize = 3000
	DefaultOverlap   = 200
)

// Piece is one split of a segment with rune offsets into the segment text.
type Piece struct {
	Text  string
	Start int
	End   int
}

// Split cuts text into pieces of at most size runes with the given rune
// overlap between consecutive pieces. Cuts prefer the last whitespace run
// inside the window so words stay intact; a window without whitespace is
// cut hard. Offsets are half-open rune positions in the input.
func Split(text string, size, overlap int) []Piece {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultOverlap
		if overlap >= size {
			overlap = size / 10
		}
	}

	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}
	if n <= size {
		return []Piece{{Text: text, Start: 0, End: n}}
	}

	var out []Piece
	start := 0
	for start < n {
		end := start + size
		if end >= n {
			end = n
		} else {
			// Walk back to a word boundary, but never past the midpoint
			// of the window.
			cut := end
			for cut > start+size/2 && !unicode.IsSpace(runes[cut-1]) {
				cut--
			}
			if cut > start+size/2 {
				end = cut
			}
		}
		out = append(out, Piece{Text: string(runes[start:end]), Start: start, End: end})
		if end == n {
			break
		}
		start = end - overlap
		if start < 0 {
			start = 0
		}
	}
	return out
}
