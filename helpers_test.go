package arcindex

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/require"
)

func encodeVarint(x uint64) []byte {
	var out []byte
	for {
		b := byte(x & 0x7F)
		x >>= 7
		if x != 0 {
			b |= 0x80
			out = append(out, b)
			continue
		}
		out = append(out, b)
		break
	}
	return out
}

func le16(v uint16) []byte { return binary.LittleEndian.AppendUint16(nil, v) }
func le32(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func deflateBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var b bytes.Buffer
	w, err := flate.NewWriter(&b, flate.BestCompression)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return b.Bytes()
}

// zipEntry describes one local file header record.
type zipEntry struct {
	name     string
	method   uint16
	flags    uint16
	data     []byte // stored bytes, compressed or not
	usize    uint32
	crc      uint32
	extra    []byte
	noSizes  bool // write zero sizes (data descriptor entries)
	zip64    bool // write size markers and a zip64 extra field
	dosTime  uint16
	dosDate  uint16
	trailing []byte // bytes written after data, e.g. a data descriptor
}

func buildZipEntry(e zipEntry) []byte {
	csize, usize := uint32(len(e.data)), e.usize
	if e.method == 0 && usize == 0 {
		usize = csize
	}
	if e.noSizes {
		csize, usize = 0, 0
	}
	crc := e.crc
	if crc == 0 && e.method == 0 {
		crc = crc32.ChecksumIEEE(e.data)
	}
	extra := e.extra
	if e.zip64 {
		field := binary.LittleEndian.AppendUint64(nil, uint64(usize))
		field = binary.LittleEndian.AppendUint64(field, uint64(csize))
		extra = concat(extra, le16(zipExtraZip64), le16(uint16(len(field))), field)
		csize, usize = zip64Marker, zip64Marker
	}
	return concat(
		[]byte{0x50, 0x4B, 0x03, 0x04},
		le16(20), le16(e.flags), le16(e.method), le16(e.dosTime), le16(e.dosDate),
		le32(crc), le32(csize), le32(usize),
		le16(uint16(len(e.name))), le16(uint16(len(extra))),
		[]byte(e.name), extra, e.data, e.trailing,
	)
}

// zipCentralRecord builds a central directory file header.
func zipCentralRecord(name string, crc, csize, usize, localOff uint32) []byte {
	return concat(
		le32(zipCentralSig), le16(20), le16(20), le16(0x0008), le16(0), le16(0), le16(0),
		le32(crc), le32(csize), le32(usize),
		le16(uint16(len(name))), le16(0), le16(0), le16(0), le16(0), le32(0), le32(localOff),
		[]byte(name),
	)
}

func zipEOCD(entries uint16, cdSize, cdOffset uint32) []byte {
	return concat(le32(zipEOCDSig), le16(0), le16(0), le16(entries), le16(entries), le32(cdSize), le32(cdOffset), le16(0))
}

// rar4Block builds a RAR4 block with a zero CRC.
func rar4Block(typ byte, flags uint16, body []byte) []byte {
	return concat(le16(0), []byte{typ}, le16(flags), le16(uint16(rar4HeaderLen+len(body))), body)
}

func rar4MainHeader(flags uint16) []byte {
	return rar4Block(rar4BlockMain, flags, make([]byte, 6))
}

func rar4EndHeader() []byte { return rar4Block(rar4BlockEnd, 0x4000, nil) }

// rar4File describes a RAR4 FILE_HEAD block and its data.
type rar4File struct {
	name      []byte
	flags     uint16
	pack, unp uint64
	hostOS    byte
	crc       uint32
	ftime     uint32
	version   byte
	method    byte
	attr      uint32
	salt      []byte
	extTime   []byte
	data      []byte
}

// buildRar4FileHeader returns the header block followed by the data bytes.
func buildRar4FileHeader(f rar4File) []byte {
	flags := f.flags | rar4FlagLongBlock
	if f.pack > 0xFFFFFFFF || f.unp > 0xFFFFFFFF {
		flags |= 0x0100
	}
	body := concat(
		le32(uint32(f.pack)), le32(uint32(f.unp)), []byte{f.hostOS}, le32(f.crc), le32(f.ftime),
		[]byte{f.version, f.method}, le16(uint16(len(f.name))), le32(f.attr),
	)
	if flags&0x0100 != 0 {
		body = concat(body, le32(uint32(f.pack>>32)), le32(uint32(f.unp>>32)))
	}
	body = concat(body, f.name)
	if f.salt != nil {
		flags |= 0x0400
		body = concat(body, f.salt)
	}
	if f.extTime != nil {
		flags |= 0x1000
		body = concat(body, f.extTime)
	}
	return concat(rar4Block(rar4BlockFile, flags, body), f.data)
}

// storedRar4 is a stored file whose sizes follow its data.
func storedRar4(name string, data []byte) rar4File {
	return rar4File{
		name:    []byte(name),
		pack:    uint64(len(data)),
		unp:     uint64(len(data)),
		hostOS:  rar4HostWin32,
		crc:     crc32.ChecksumIEEE(data),
		version: 29,
		method:  rar4MethodStore,
		attr:    0x20,
		data:    data,
	}
}

func rar4Archive(blocks ...[]byte) []byte {
	return concat(rarSigV4, rar4MainHeader(0), concat(blocks...), rar4EndHeader())
}

// rar5Block builds a RAR5 header with a zero CRC. extra is appended to the
// header as its extra area and data follows the header.
func rar5Block(typ, flags uint64, body, extra, data []byte) []byte {
	if extra != nil {
		flags |= 0x0001
	}
	if data != nil {
		flags |= 0x0002
	}
	content := concat(encodeVarint(typ), encodeVarint(flags))
	if flags&0x0001 != 0 {
		content = concat(content, encodeVarint(uint64(len(extra))))
	}
	if flags&0x0002 != 0 {
		content = concat(content, encodeVarint(uint64(len(data))))
	}
	content = concat(content, body, extra)
	return concat(le32(0), encodeVarint(uint64(len(content))), content, data)
}

func rar5Main(archiveFlags uint64, volume ...uint64) []byte {
	body := encodeVarint(archiveFlags)
	for _, v := range volume {
		body = concat(body, encodeVarint(v))
	}
	return rar5Block(rar5HeadMain, 0, body, nil, nil)
}

func rar5End() []byte { return rar5Block(rar5HeadEnd, 0, encodeVarint(0), nil, nil) }

// rar5File describes a RAR5 file or service header.
type rar5File struct {
	name      string
	fileFlags uint64
	unp       uint64
	attr      uint64
	mtime     uint32
	crc       uint32
	compInfo  uint64
	hostOS    uint64
	extra     []byte
	data      []byte
	hflags    uint64
}

func (f rar5File) body() []byte {
	b := concat(encodeVarint(f.fileFlags), encodeVarint(f.unp), encodeVarint(f.attr))
	if f.fileFlags&0x0002 != 0 {
		b = concat(b, le32(f.mtime))
	}
	if f.fileFlags&0x0004 != 0 {
		b = concat(b, le32(f.crc))
	}
	return concat(b, encodeVarint(f.compInfo), encodeVarint(f.hostOS), encodeVarint(uint64(len(f.name))), []byte(f.name))
}

func buildRar5File(f rar5File) []byte {
	data := f.data
	if data == nil {
		data = []byte{}
	}
	return rar5Block(rar5HeadFile, f.hflags, f.body(), f.extra, data)
}

func storedRar5(name string, data []byte) rar5File {
	return rar5File{
		name:      name,
		fileFlags: 0x0004,
		unp:       uint64(len(data)),
		crc:       crc32.ChecksumIEEE(data),
		data:      data,
	}
}

func rar5Archive(blocks ...[]byte) []byte {
	return concat(rarSigV5, rar5Main(0), concat(blocks...), rar5End())
}
