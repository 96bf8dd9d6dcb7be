package utils

// SplitText cuts text into chunks of roughly chunkSize characters with
// overlap carried between neighbours, so no statement is stranded at a
// chunk boundary. Splitting is rune-based; embedding backends tokenize
// their own input.
func SplitText(text string, chunkSize int, overlap int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	runes := []rune(text)
	total := len(runes)

	var chunks []string
	for i := 0; i < total; i += step {
		end := i + chunkSize
		if end > total {
			end = total
		}

		chunks = append(chunks, string(runes[i:end]))

		if end == total {
			break
		}
	}

	return chunks
}
