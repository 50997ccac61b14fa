package chunking

import "strings"

// Splitter cuts normalized text into fixed-width rune windows that overlap
// at their boundaries, so context is not lost at a split point.
type Splitter struct{}

func NewSplitter() *Splitter {
	return &Splitter{}
}

// Split collapses whitespace runs to single spaces, then slides a window of
// chunkSize runes advancing chunkSize-chunkOverlap per step. The window
// ending at or past the text end terminates the loop after being emitted.
func (s *Splitter) Split(text string, chunkSize, chunkOverlap int) []string {
	if chunkSize <= 0 {
		return nil
	}

	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return nil
	}

	runes := []rune(normalized)
	step := chunkSize - chunkOverlap
	if step < 1 {
		step = 1
	}

	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if start+chunkSize >= len(runes) {
			break
		}
	}
	return out
}
