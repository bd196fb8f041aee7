package msglog

import (
	"bufio"
	"encoding/binary"
	"io"

	"broker/internal/message"
	"broker/internal/session"
	"broker/pkg/exception"
)

// ReaderOptions controls record decoding.
type ReaderOptions struct {
	DisableChecksum bool
	MaxBodySize     int
}

// Reader decodes message log records sequentially.
type Reader struct {
	r         *bufio.Reader
	opts      ReaderOptions
	headerBuf []byte
	payload   []byte
}

// NewReader wraps an io.Reader with record decoding.
func NewReader(r io.Reader, opts ReaderOptions) *Reader {
	return &Reader{
		r:         bufio.NewReader(r),
		opts:      opts,
		headerBuf: make([]byte, recordHeaderSize),
	}
}

// Next returns the next record. Body is only valid until the next call.
func (r *Reader) Next() (Record, error) {
	n, err := io.ReadFull(r.r, r.headerBuf)
	if err != nil {
		if err == io.EOF && n == 0 {
			return Record{}, io.EOF
		}
		return Record{}, err
	}

	rec, lens, err := decodeHeader(r.headerBuf)
	if err != nil {
		return Record{}, err
	}
	if r.opts.MaxBodySize > 0 && lens.body > r.opts.MaxBodySize {
		return Record{}, exception.ErrMsglogRecordTooLarge
	}

	size := lens.payload()
	if cap(r.payload) < size {
		r.payload = make([]byte, size)
	}
	r.payload = r.payload[:size]
	if _, err := io.ReadFull(r.r, r.payload); err != nil {
		return Record{}, err
	}

	var checksumBuf [recordChecksumSize]byte
	if _, err := io.ReadFull(r.r, checksumBuf[:]); err != nil {
		return Record{}, err
	}
	if !r.opts.DisableChecksum {
		if binary.LittleEndian.Uint32(checksumBuf[:]) != checksum(r.headerBuf, r.payload) {
			return Record{}, exception.ErrMsglogChecksumMismatch
		}
	}

	rec.Session = session.ID(r.payload[:lens.session])
	rec.Type = message.MsgType(r.payload[lens.session : lens.session+lens.typ])
	rec.Body = r.payload[lens.session+lens.typ:]
	return rec, nil
}
