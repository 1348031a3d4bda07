package backend

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/inkwell-ai/inkwell/internal/domain"
)

// FrameReader splits a chat response body into SSE frames. Each frame is
// one "data: <json>" line; anything else is ignored. Malformed JSON in a
// single frame is logged and skipped so one bad frame does not kill an
// otherwise-healthy stream.
type FrameReader struct {
	scanner *bufio.Scanner
	logger  *zap.Logger
}

// NewFrameReader wraps the raw stream body.
func NewFrameReader(r io.Reader, logger *zap.Logger) *FrameReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &FrameReader{scanner: scanner, logger: logger}
}

// Next returns the next decoded frame. It returns io.EOF when the stream
// ends cleanly, or the underlying read error otherwise.
func (fr *FrameReader) Next() (*domain.StreamFrame, error) {
	for fr.scanner.Scan() {
		line := fr.scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")

		var frame domain.StreamFrame
		if err := json.Unmarshal([]byte(data), &frame); err != nil {
			fr.logger.Warn("skipping malformed stream frame", zap.Error(err))
			continue
		}
		return &frame, nil
	}
	if err := fr.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
