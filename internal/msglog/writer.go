package msglog

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"broker/internal/message"
	"broker/internal/session"
	"broker/pkg/exception"

	"github.com/bytedance/sonic"
)

// Writer appends session messages to log segments from a buffered queue.
// It implements session.Tap.
type Writer struct {
	cfg     Config
	ch      chan recordRequest
	wg      sync.WaitGroup
	err     atomic.Value
	seq     atomic.Uint64
	dropped atomic.Uint64
	now     func() time.Time

	mu      sync.RWMutex
	started bool
	closed  bool
}

var _ session.Tap = (*Writer)(nil)

type recordRequest struct {
	dir session.Direction
	seq uint64
	at  time.Time
	id  session.ID
	msg message.Typed
}

type segmentWriter struct {
	file     *os.File
	buf      *bufio.Writer
	size     int64
	openedAt time.Time
}

// NewWriter creates a writer and ensures the target directory exists.
func NewWriter(cfg Config) (*Writer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	return &Writer{
		cfg: cfg,
		ch:  make(chan recordRequest, cfg.QueueSize),
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start runs the writer loop in a new goroutine.
func (w *Writer) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return exception.ErrMsglogAlreadyStarted
	}
	if w.closed {
		return exception.ErrMsglogClosed
	}
	w.started = true
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
	return nil
}

// Close stops the writer and flushes any buffered records.
func (w *Writer) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.ch)
	}
	w.mu.Unlock()
	w.wg.Wait()
	return w.Err()
}

// Err returns the first error observed by the writer, if any.
func (w *Writer) Err() error {
	if v := w.err.Load(); v != nil {
		return v.(error)
	}
	return nil
}

// Dropped returns how many messages could not be queued.
func (w *Writer) Dropped() uint64 {
	return w.dropped.Load()
}

// Record enqueues msg and counts it as dropped when it cannot be queued.
func (w *Writer) Record(dir session.Direction, id session.ID, msg message.Typed) {
	if err := w.TryAppend(dir, id, msg); err != nil {
		w.dropped.Add(1)
	}
}

// TryAppend enqueues msg without blocking.
func (w *Writer) TryAppend(dir session.Direction, id session.ID, msg message.Typed) error {
	if err := w.Err(); err != nil {
		return err
	}
	if len(id) > maxNameLen || len(msg.MsgType()) > maxNameLen {
		return exception.ErrMsglogRecordTooLarge
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return exception.ErrMsglogClosed
	}
	if !w.started {
		return exception.ErrMsglogNotStarted
	}

	req := recordRequest{dir: dir, seq: w.seq.Add(1), at: w.now(), id: id, msg: msg}
	select {
	case w.ch <- req:
		return nil
	default:
		return exception.ErrMsglogQueueFull
	}
}

func (w *Writer) run(ctx context.Context) {
	var (
		seg         *segmentWriter
		segID       uint64
		headerBuf   = make([]byte, recordHeaderSize)
		payloadBuf  []byte
		checksumBuf [recordChecksumSize]byte
		flushC      <-chan time.Time
	)

	if w.cfg.FlushInterval > 0 {
		ticker := time.NewTicker(w.cfg.FlushInterval)
		defer ticker.Stop()
		flushC = ticker.C
	}

	defer func() {
		if err := closeSegment(seg); err != nil {
			w.setErr(err)
		}
	}()

	write := func(req recordRequest) bool {
		var err error
		payloadBuf, err = w.writeRecord(&seg, &segID, headerBuf, payloadBuf, &checksumBuf, req)
		if err != nil {
			w.setErr(err)
			return false
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case req, ok := <-w.ch:
					if !ok || !write(req) {
						return
					}
				default:
					return
				}
			}
		case req, ok := <-w.ch:
			if !ok || !write(req) {
				return
			}
		case <-flushC:
			if seg != nil {
				if err := seg.buf.Flush(); err != nil {
					w.setErr(err)
					return
				}
			}
		}
	}
}

func (w *Writer) writeRecord(seg **segmentWriter, segID *uint64, headerBuf, payloadBuf []byte, checksumBuf *[recordChecksumSize]byte, req recordRequest) ([]byte, error) {
	body, err := sonic.Marshal(req.msg)
	if err != nil {
		return payloadBuf, err
	}
	if uint64(len(body)) > maxBodyLen {
		return payloadBuf, exception.ErrMsglogRecordTooLarge
	}

	rec := Record{
		Direction: req.dir,
		Seq:       req.seq,
		Time:      req.at,
		Session:   req.id,
		Type:      req.msg.MsgType(),
		Body:      body,
	}
	payloadBuf = appendPayload(payloadBuf[:0], rec)

	recordSize := int64(recordHeaderSize + len(payloadBuf) + recordChecksumSize)
	if w.shouldRotate(*seg, req.at, recordSize) {
		if err := closeSegment(*seg); err != nil {
			return payloadBuf, err
		}
		opened, err := w.openSegment(segID, req.at)
		if err != nil {
			return payloadBuf, err
		}
		*seg = opened
	}

	encodeHeader(headerBuf, rec)
	binary.LittleEndian.PutUint32(checksumBuf[:], checksum(headerBuf, payloadBuf))

	buf := (*seg).buf
	if _, err := buf.Write(headerBuf); err != nil {
		return payloadBuf, err
	}
	if _, err := buf.Write(payloadBuf); err != nil {
		return payloadBuf, err
	}
	if _, err := buf.Write(checksumBuf[:]); err != nil {
		return payloadBuf, err
	}
	(*seg).size += recordSize
	return payloadBuf, nil
}

func (w *Writer) shouldRotate(seg *segmentWriter, now time.Time, nextSize int64) bool {
	if seg == nil {
		return true
	}
	if seg.size > 0 && seg.size+nextSize > w.cfg.SegmentMaxBytes {
		return true
	}
	if w.cfg.SegmentMaxDuration > 0 && now.Sub(seg.openedAt) >= w.cfg.SegmentMaxDuration {
		return true
	}
	return false
}

func (w *Writer) openSegment(segID *uint64, now time.Time) (*segmentWriter, error) {
	ts := now.Format("20060102-150405")
	for {
		*segID++
		name := fmt.Sprintf("%s-%s-%06d%s", w.cfg.FilePrefix, ts, *segID, fileSuffix)
		file, err := os.OpenFile(filepath.Join(w.cfg.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return nil, err
		}
		return &segmentWriter{
			file:     file,
			buf:      bufio.NewWriterSize(file, w.cfg.BufferSize),
			openedAt: now,
		}, nil
	}
}

func closeSegment(seg *segmentWriter) error {
	if seg == nil {
		return nil
	}
	if err := seg.buf.Flush(); err != nil {
		_ = seg.file.Close()
		return err
	}
	if err := seg.file.Sync(); err != nil {
		_ = seg.file.Close()
		return err
	}
	return seg.file.Close()
}

func (w *Writer) setErr(err error) {
	if err == nil || w.err.Load() != nil {
		return
	}
	w.err.Store(err)
}
