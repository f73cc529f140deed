package saltpack

// Chunk is one slice of a chunked plaintext, along with the bookkeeping an
// encoder needs to nonce and (for v2) terminate the payload stream.
type Chunk struct {
	Index uint64
	Data  []byte
	Final bool // meaningful for v2 only
}

// chunksV1 splits message into size-byte chunks and appends one empty
// terminator chunk. Final is always false; v1 consumers ignore it and
// instead treat an empty chunk as the terminator.
func chunksV1(message []byte, size int) []Chunk {
	chunks := splitChunks(message, size)
	chunks = append(chunks, Chunk{Index: uint64(len(chunks)), Data: []byte{}})
	return chunks
}

// chunksV2 splits message into size-byte chunks, marking the last one
// Final. An empty message yields exactly one final, empty chunk.
func chunksV2(message []byte, size int) []Chunk {
	if len(message) == 0 {
		return []Chunk{{Index: 0, Data: []byte{}, Final: true}}
	}
	chunks := splitChunks(message, size)
	chunks[len(chunks)-1].Final = true
	return chunks
}

// splitChunks breaks message into consecutive, index-tagged slices of at
// most size bytes each. It never returns zero chunks for a non-empty
// message, and returns zero chunks for an empty one (callers add whatever
// terminator their version needs).
func splitChunks(message []byte, size int) []Chunk {
	if size <= 0 {
		panic("saltpack: chunk size must be > 0")
	}
	var chunks []Chunk
	for start, idx := 0, uint64(0); start < len(message); start, idx = start+size, idx+1 {
		end := start + size
		if end > len(message) {
			end = len(message)
		}
		chunks = append(chunks, Chunk{Index: idx, Data: message[start:end]})
	}
	return chunks
}
