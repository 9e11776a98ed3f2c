package compress

// Compress encodes and decodes byte blobs. Implementations are stateless and
// safe for concurrent use.
type Compress interface {
	// Name identifies the codec, it round-trips through ByName.
	Name() string
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// ByName returns the codec registered under name. Unknown names fall back to
// the nop codec.
func ByName(name string) Compress {
	switch name {
	case "gzip":
		return NewGZip()
	case "brotli":
		return NewBrotli()
	case "lz4":
		return NewLZ4()
	default:
		return NewNop()
	}
}
