package audio

import (
	"fmt"
	"io"
	"time"
)

// ChunkReader re-frames an arbitrary byte stream into fixed-size chunks. The
// final chunk before EOF may be shorter.
type ChunkReader struct {
	r         io.Reader
	buf       []byte
	chunkSize int
	eof       bool
}

func NewChunkReader(r io.Reader, chunkSize int) *ChunkReader {
	return &ChunkReader{
		r:         r,
		chunkSize: chunkSize,
		buf:       make([]byte, 0, chunkSize*2),
	}
}

// ChunkSize returns the byte length of one frame of mono PCM16 covering the
// given duration at sampleRate.
func ChunkSize(sampleRate int, d time.Duration) int {
	frames := int(float64(sampleRate) * d.Seconds())
	return frames * bytesPerSample
}

// NewFrameReader returns a ChunkReader sized for frames of duration d at
// sampleRate, mono PCM16.
func NewFrameReader(r io.Reader, sampleRate int, d time.Duration) *ChunkReader {
	return NewChunkReader(r, ChunkSize(sampleRate, d))
}

func (f *ChunkReader) Read(p []byte) (int, error) {
	if len(p) < f.chunkSize {
		return 0, fmt.Errorf("audio: Read buffer must be at least %d bytes", f.chunkSize)
	}

	// Fill internal buffer until a full chunk is available or EOF.
	for len(f.buf) < f.chunkSize && !f.eof {
		tmp := make([]byte, f.chunkSize)
		n, err := f.r.Read(tmp)
		if n > 0 {
			f.buf = append(f.buf, tmp[:n]...)
		}
		if err == io.EOF {
			f.eof = true
			break
		}
		if err != nil {
			return 0, err
		}
	}

	if len(f.buf) == 0 && f.eof {
		return 0, io.EOF
	}

	n := f.chunkSize
	if len(f.buf) < f.chunkSize {
		n = len(f.buf)
	}

	copy(p, f.buf[:n])
	f.buf = f.buf[n:]

	return n, nil
}
