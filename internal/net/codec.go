package net

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
)

// MaxFrameSize caps a single message payload at 64 KB. Larger frames are
// drained and rejected without killing the stream.
const MaxFrameSize = 64 * 1024

var ErrFrameTooLarge = errors.New("frame exceeds size cap")

// FrameReader decodes length-prefixed frames from a stream.
// Wire format: [4 bytes BE: payload length][JSON payload].
//
// It keeps partial state across calls: a read deadline expiring mid-frame
// loses nothing, the next Next call resumes at the exact stream position.
// The session loop relies on this to poll with short deadlines without
// ever desyncing on a frame that straddles one.
type FrameReader struct {
	r io.Reader

	header  [4]byte
	got     int    // header bytes read so far
	payload []byte // nil until the header is complete
	filled  int    // payload bytes read so far
	drain   int64  // oversized-frame bytes still to discard
}

func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r}
}

// Next returns the next complete frame. Errors (timeouts included) leave
// the partial frame buffered; calling Next again picks it back up.
// An oversized frame is consumed from the stream, across as many calls as
// its drain needs, and reported as ErrFrameTooLarge once fully discarded.
func (fr *FrameReader) Next() ([]byte, error) {
	if fr.drain > 0 {
		if err := fr.discard(); err != nil {
			return nil, err
		}
		return nil, ErrFrameTooLarge
	}

	for fr.got < len(fr.header) {
		n, err := fr.r.Read(fr.header[fr.got:])
		fr.got += n
		if err != nil {
			return nil, err
		}
	}

	if fr.payload == nil {
		payloadLen := int(binary.BigEndian.Uint32(fr.header[:]))
		if payloadLen <= 0 {
			fr.got = 0
			return nil, fmt.Errorf("invalid frame length: %d", payloadLen)
		}
		if payloadLen > MaxFrameSize {
			fr.got = 0
			fr.drain = int64(payloadLen)
			if err := fr.discard(); err != nil {
				return nil, err
			}
			return nil, ErrFrameTooLarge
		}
		fr.payload = make([]byte, payloadLen)
		fr.filled = 0
	}

	for fr.filled < len(fr.payload) {
		n, err := fr.r.Read(fr.payload[fr.filled:])
		fr.filled += n
		if err != nil {
			return nil, err
		}
	}

	out := fr.payload
	fr.got = 0
	fr.payload = nil
	fr.filled = 0
	return out, nil
}

// discard consumes the remainder of an oversized frame, never reading
// past its end. Resumable like Next: an error keeps the residual count.
func (fr *FrameReader) discard() error {
	var buf [4096]byte
	for fr.drain > 0 {
		chunk := fr.drain
		if chunk > int64(len(buf)) {
			chunk = int64(len(buf))
		}
		n, err := fr.r.Read(buf[:chunk])
		fr.drain -= int64(n)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadFrame reads one complete frame from r. For polling against a
// deadline use a persistent FrameReader; this helper carries no state
// between calls.
func ReadFrame(r io.Reader) ([]byte, error) {
	return NewFrameReader(r).Next()
}

// WriteFrame writes one frame to w through a pooled scratch buffer so the
// header+payload go out in a single Write. The buffer is reset before it
// returns to the pool; per-connection memory stays bounded.
func WriteFrame(w io.Writer, data []byte) error {
	if len(data) > MaxFrameSize {
		return ErrFrameTooLarge
	}

	buf := framePool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		framePool.Put(buf)
	}()

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(data)))
	buf.Write(header[:])
	buf.Write(data)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

var framePool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}
