// Package codec reads and writes publication documents. A document is JSON or
// CBOR, optionally zstd-compressed; Decode detects all combinations.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/tendant/simple-publication/pkg/publication"
)

// Format is the body encoding of a document.
type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// Layout selects how blocks are grouped on the wire.
type Layout string

const (
	// LayoutKinds keeps one list per block kind.
	LayoutKinds Layout = "kinds"
	// LayoutTagged keeps one list of blocks tagged with their kind.
	LayoutTagged Layout = "tagged"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var (
	ErrUnknownFormat = errors.New("unknown document format")
	ErrUnknownLayout = errors.New("unknown document layout")
	ErrEmptyDocument = errors.New("empty document")
)

// Options controls Encode.
type Options struct {
	Format   Format
	Layout   Layout
	Compress bool
	// Indent pretty-prints JSON output.
	Indent bool
}

// DefaultOptions returns uncompressed JSON in the per-kind layout.
func DefaultOptions() Options {
	return Options{Format: FormatJSON, Layout: LayoutKinds}
}

// ParseFormat converts a string into a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCBOR:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ParseLayout converts a string into a Layout.
func ParseLayout(s string) (Layout, error) {
	switch l := Layout(strings.ToLower(strings.TrimSpace(s))); l {
	case LayoutKinds, LayoutTagged:
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLayout, s)
}

// Info describes a decoded document.
type Info struct {
	Format     Format
	Layout     Layout
	Compressed bool
}

// Encode writes the publication to w.
func Encode(w io.Writer, pub *publication.Publication, opts Options) error {
	if opts.Format == "" {
		opts.Format = FormatJSON
	}
	if opts.Layout == "" {
		opts.Layout = LayoutKinds
	}

	var doc interface{}
	switch opts.Layout {
	case LayoutKinds:
		doc = pub.ToDocument()
	case LayoutTagged:
		doc = pub.ToDocument().Flatten()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLayout, opts.Layout)
	}

	body, err := marshal(doc, opts)
	if err != nil {
		return err
	}

	if opts.Compress {
		body, err = compress(body)
		if err != nil {
			return fmt.Errorf("compress document: %w", err)
		}
	}

	_, err = w.Write(body)
	return err
}

// DefaultMaxDecodedSize caps the decompressed size of a document.
const DefaultMaxDecodedSize = 64 << 20

type decodeConfig struct {
	maxDecodedSize uint64
}

// DecodeOption configures Decode.
type DecodeOption func(*decodeConfig)

// WithMaxDecodedSize sets the largest decompressed document Decode accepts.
func WithMaxDecodedSize(n uint64) DecodeOption {
	return func(c *decodeConfig) {
		if n > 0 {
			c.maxDecodedSize = n
		}
	}
}

// Decode reads a publication in any supported format and layout.
func Decode(r io.Reader, opts ...DecodeOption) (*publication.Publication, Info, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Info{}, fmt.Errorf("read document: %w", err)
	}
	return DecodeBytes(data, opts...)
}

// DecodeBytes is Decode for an in-memory document.
func DecodeBytes(data []byte, opts ...DecodeOption) (*publication.Publication, Info, error) {
	cfg := decodeConfig{maxDecodedSize: DefaultMaxDecodedSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	var info Info
	if bytes.HasPrefix(data, zstdMagic) {
		plain, err := decompress(data, cfg.maxDecodedSize)
		if err != nil {
			return nil, info, fmt.Errorf("decompress document: %w", err)
		}
		data = plain
		info.Compressed = true
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, info, ErrEmptyDocument
	}

	var unmarshal func([]byte, interface{}) error
	if trimmed[0] == '{' {
		info.Format = FormatJSON
		unmarshal = json.Unmarshal
	} else {
		info.Format = FormatCBOR
		unmarshal = publication.UnmarshalDocumentCBOR
	}

	var wire wireDocument
	if err := unmarshal(data, &wire); err != nil {
		return nil, info, fmt.Errorf("decode %s document: %w", info.Format, err)
	}

	doc := wire.Document
	info.Layout = LayoutKinds
	if wire.Blocks != nil {
		info.Layout = LayoutTagged
		if wire.hasKindLists() {
			return nil, info, fmt.Errorf("%w: document mixes \"blocks\" with per-kind lists", ErrUnknownLayout)
		}
		flat := publication.FlatDocument{Title: doc.Title, Sections: doc.Sections, Blocks: wire.Blocks}
		expanded, err := flat.Expand()
		if err != nil {
			return nil, info, err
		}
		doc = expanded
	}

	pub, err := publication.FromDocument(doc)
	if err != nil {
		return nil, info, err
	}
	return pub, info, nil
}

// wireDocument accepts both layouts in a single decode.
type wireDocument struct {
	publication.Document
	Blocks []publication.BlockDocument `json:"blocks"`
}

func (w wireDocument) hasKindLists() bool {
	for _, list := range [][]publication.BlockDocument{
		w.TextBlocks, w.DescriptionBlocks, w.ImageBlocks, w.CarouselBlocks,
		w.TableBlocks, w.VideoBlocks, w.AudioBlocks, w.TextImageBlocks,
	} {
		if len(list) > 0 {
			return true
		}
	}
	return false
}

func marshal(doc interface{}, opts Options) ([]byte, error) {
	switch opts.Format {
	case FormatJSON:
		if opts.Indent {
			return json.MarshalIndent(doc, "", "  ")
		}
		return json.Marshal(doc)
	case FormatCBOR:
		return publication.MarshalDocumentCBOR(doc)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
}

func compress(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer encoder.Close()

	return encoder.EncodeAll(data, nil), nil
}

func decompress(data []byte, maxSize uint64) ([]byte, error) {
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxSize))
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	return decoder.DecodeAll(data, nil)
}
