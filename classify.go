package arcindex

const (
	zipMethodStore     = 0
	zipMethodDeflate   = 8
	zipMethodDeflate64 = 9

	zipFlagEncrypted      = 0x0001
	zipFlagDataDescriptor = 0x0008

	rar4MethodStore = 0x30
)

// ClassifyZip maps a ZIP method code to a compression type. Encrypted
// entries are Unsupported whatever their method.
func ClassifyZip(method, flags uint16) CompressionType {
	if flags&zipFlagEncrypted != 0 {
		return Unsupported
	}
	switch method {
	case zipMethodStore:
		return Uncompressed
	case zipMethodDeflate:
		return Deflate
	case zipMethodDeflate64:
		return Deflate64
	default:
		return Unsupported
	}
}

// ClassifyRar4 maps the unpack version and method bytes of a RAR4 file
// header to a compression type. The store method is Uncompressed whatever
// version wrote it.
func ClassifyRar4(version, method byte) CompressionType {
	if method == rar4MethodStore {
		return Uncompressed
	}
	switch version {
	case 0:
		return Uncompressed
	case 15, 20, 26, 29, 36:
		return Rar4
	default:
		return Unsupported
	}
}

// Rar5CompInfo is the unpacked RAR5 compression information field.
type Rar5CompInfo struct {
	Version  uint8
	Solid    bool
	Method   uint8
	DictBits uint8
}

// DictSize returns the dictionary size in bytes.
func (c Rar5CompInfo) DictSize() uint64 { return 128 << 10 << c.DictBits }

// DecodeRar5CompInfo splits the compression information bitfield: version in
// bits 0-5, solid flag in bit 6, method in bits 7-9, dictionary in 10-13.
func DecodeRar5CompInfo(v uint64) Rar5CompInfo {
	return Rar5CompInfo{
		Version:  uint8(v & 0x3F),
		Solid:    v&0x40 != 0,
		Method:   uint8(v >> 7 & 0x07),
		DictBits: uint8(v >> 10 & 0x0F),
	}
}

// ClassifyRar5 maps a RAR5 compression information field to a compression
// type.
func ClassifyRar5(compInfo uint64) CompressionType {
	switch m := DecodeRar5CompInfo(compInfo).Method; {
	case m == 0:
		return Uncompressed
	case m <= 5:
		return Rar5
	default:
		return Unsupported
	}
}
