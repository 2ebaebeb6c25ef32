package publication

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	cborDecMode cbor.DecMode
	cborEncMode cbor.EncMode
)

func init() {
	var err error
	// Nested maps decode as map[string]interface{} so access criteria keep the
	// same shape as their JSON counterpart.
	cborDecMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]interface{}(nil)),
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("publication: cbor decode mode: %v", err))
	}
	cborEncMode, err = cbor.EncOptions{
		Sort: cbor.SortCanonical,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("publication: cbor encode mode: %v", err))
	}
}

// MarshalCBOR encodes the publication as a Document.
func (p *Publication) MarshalCBOR() ([]byte, error) {
	return cborEncMode.Marshal(p.ToDocument())
}

// UnmarshalCBOR decodes a Document and rebuilds the publication from it.
func (p *Publication) UnmarshalCBOR(data []byte) error {
	var doc Document
	if err := cborDecMode.Unmarshal(data, &doc); err != nil {
		return err
	}
	decoded, err := FromDocument(doc)
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}

// UnmarshalCBOR decodes a block, using Type to pick the content shape.
func (bd *BlockDocument) UnmarshalCBOR(data []byte) error {
	var raw struct {
		BlockID        BlockID                `json:"blockId"`
		Type           Kind                   `json:"type"`
		Content        cbor.RawMessage        `json:"content"`
		AccessCriteria map[string]interface{} `json:"accessCriteria,omitempty"`
	}
	if err := cborDecMode.Unmarshal(data, &raw); err != nil {
		return err
	}
	content, err := decodeContent(raw.Type, raw.Content, cborDecMode.Unmarshal)
	if err != nil {
		return &BlockError{BlockID: raw.BlockID, Op: "decode", Err: err}
	}
	*bd = BlockDocument{
		BlockID:        raw.BlockID,
		Type:           raw.Type,
		Content:        content,
		AccessCriteria: raw.AccessCriteria,
	}
	return nil
}

// MarshalDocumentCBOR encodes any document layout with the package's CBOR
// encoding options.
func MarshalDocumentCBOR(v interface{}) ([]byte, error) {
	return cborEncMode.Marshal(v)
}

// UnmarshalDocumentCBOR decodes CBOR into a Document or FlatDocument.
func UnmarshalDocumentCBOR(data []byte, v interface{}) error {
	return cborDecMode.Unmarshal(data, v)
}
