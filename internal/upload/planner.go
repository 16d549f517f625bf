package upload

// Strategy selection and chunk geometry for one file transfer.

const (
	// DirectUploadThreshold is the size below which a file is sent with a
	// single presigned PUT instead of a multipart session.
	DirectUploadThreshold = int64(10 * 1024 * 1024)

	// ChunkSize is the fixed part size for chunked uploads. The last part
	// may be shorter.
	ChunkSize = int64(20 * 1024 * 1024)
)

type Strategy int

const (
	StrategyDirect Strategy = iota
	StrategyChunked
)

func (s Strategy) String() string {
	switch s {
	case StrategyDirect:
		return "direct"
	case StrategyChunked:
		return "chunked"
	default:
		return "unknown"
	}
}

// Chunk is one contiguous byte range of the file. Parts are numbered from 1.
type Chunk struct {
	Number int
	Offset int64
	Size   int64
}

// Plan describes how a file of a given size will be transferred.
type Plan struct {
	Strategy  Strategy
	SizeBytes int64
	ChunkSize int64
	Chunks    []Chunk
}

// PlanTransfer decides the strategy for a file of the given size and, for
// chunked uploads, computes the part boundaries. Pure function of size and
// the two package constants.
func PlanTransfer(size int64) Plan {
	if size < DirectUploadThreshold {
		return Plan{
			Strategy:  StrategyDirect,
			SizeBytes: size,
		}
	}

	count := divideAndCeil(size, ChunkSize)
	chunks := make([]Chunk, 0, count)
	for i := int64(0); i < count; i++ {
		offset := i * ChunkSize
		chunkSize := ChunkSize
		if remaining := size - offset; remaining < chunkSize {
			chunkSize = remaining
		}
		chunks = append(chunks, Chunk{
			Number: int(i + 1),
			Offset: offset,
			Size:   chunkSize,
		})
	}

	return Plan{
		Strategy:  StrategyChunked,
		SizeBytes: size,
		ChunkSize: ChunkSize,
		Chunks:    chunks,
	}
}

func divideAndCeil(numerator, denominator int64) int64 {
	if denominator == 0 {
		return 0
	}
	quotient := numerator / denominator
	if numerator%denominator != 0 {
		quotient++
	}
	return quotient
}
