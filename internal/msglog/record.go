package msglog

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"time"

	"broker/internal/message"
	"broker/internal/session"
	"broker/pkg/exception"
)

const (
	recordVersion      uint16 = 1
	recordHeaderSize          = 40
	recordChecksumSize        = 4
	maxNameLen                = int(^uint16(0))
	maxBodyLen                = uint64(^uint32(0))
)

var (
	recordMagic = [4]byte{'F', 'M', 'L', '1'}
	crcTable    = crc32.MakeTable(crc32.Castagnoli)
)

// Record is one application message seen at the session boundary.
type Record struct {
	Direction session.Direction
	Seq       uint64
	Time      time.Time
	Session   session.ID
	Type      message.MsgType
	// Body is the JSON encoding of the message.
	Body []byte
}

// header layout, little endian:
//
//	0  magic       [4]byte
//	4  version     uint16
//	6  header size uint16
//	8  direction   uint8
//	9  reserved    uint8
//	10 session len uint16
//	12 type len    uint16
//	14 reserved    uint16
//	16 body len    uint32
//	20 seq         uint64
//	28 unix nanos  uint64
//	36 reserved    uint32
func encodeHeader(dst []byte, rec Record) {
	_ = dst[recordHeaderSize-1]
	copy(dst[0:4], recordMagic[:])
	binary.LittleEndian.PutUint16(dst[4:6], recordVersion)
	binary.LittleEndian.PutUint16(dst[6:8], uint16(recordHeaderSize))
	dst[8] = byte(rec.Direction)
	dst[9] = 0
	binary.LittleEndian.PutUint16(dst[10:12], uint16(len(rec.Session)))
	binary.LittleEndian.PutUint16(dst[12:14], uint16(len(rec.Type)))
	binary.LittleEndian.PutUint16(dst[14:16], 0)
	binary.LittleEndian.PutUint32(dst[16:20], uint32(len(rec.Body)))
	binary.LittleEndian.PutUint64(dst[20:28], rec.Seq)
	binary.LittleEndian.PutUint64(dst[28:36], uint64(rec.Time.UnixNano()))
	binary.LittleEndian.PutUint32(dst[36:40], 0)
}

type recordLens struct {
	session int
	typ     int
	body    int
}

func (l recordLens) payload() int {
	return l.session + l.typ + l.body
}

func decodeHeader(src []byte) (Record, recordLens, error) {
	if len(src) < recordHeaderSize {
		return Record{}, recordLens{}, exception.ErrMsglogInvalidHeader
	}
	if !bytes.Equal(src[0:4], recordMagic[:]) {
		return Record{}, recordLens{}, exception.ErrMsglogInvalidMagic
	}
	if ver := binary.LittleEndian.Uint16(src[4:6]); ver != recordVersion {
		return Record{}, recordLens{}, exception.ErrMsglogUnsupportedVer
	}
	if size := binary.LittleEndian.Uint16(src[6:8]); size != recordHeaderSize {
		return Record{}, recordLens{}, exception.ErrMsglogInvalidHeader
	}
	rec := Record{
		Direction: session.Direction(src[8]),
		Seq:       binary.LittleEndian.Uint64(src[20:28]),
		Time:      time.Unix(0, int64(binary.LittleEndian.Uint64(src[28:36]))).UTC(),
	}
	lens := recordLens{
		session: int(binary.LittleEndian.Uint16(src[10:12])),
		typ:     int(binary.LittleEndian.Uint16(src[12:14])),
		body:    int(binary.LittleEndian.Uint32(src[16:20])),
	}
	return rec, lens, nil
}

func checksum(header, payload []byte) uint32 {
	crc := crc32.Update(0, crcTable, header)
	return crc32.Update(crc, crcTable, payload)
}

// appendPayload appends the variable part of rec to dst.
func appendPayload(dst []byte, rec Record) []byte {
	dst = append(dst, rec.Session...)
	dst = append(dst, rec.Type...)
	return append(dst, rec.Body...)
}
