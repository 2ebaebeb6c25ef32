package publication

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes the publication as a Document.
func (p *Publication) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ToDocument())
}

// UnmarshalJSON decodes a Document and rebuilds the publication from it.
func (p *Publication) UnmarshalJSON(data []byte) error {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	decoded, err := FromDocument(doc)
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}

// UnmarshalJSON decodes a block, using Type to pick the content shape.
func (bd *BlockDocument) UnmarshalJSON(data []byte) error {
	var raw struct {
		BlockID        BlockID                `json:"blockId"`
		Type           Kind                   `json:"type"`
		Content        json.RawMessage        `json:"content"`
		AccessCriteria map[string]interface{} `json:"accessCriteria,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	content, err := decodeContent(raw.Type, raw.Content, json.Unmarshal)
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

func decodeContent(k Kind, raw []byte, unmarshal func([]byte, interface{}) error) (Payload, error) {
	p, err := newPayload(k)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s: content is missing", ErrInvalidPayload, k)
	}
	if err := unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, k, err)
	}
	return derefPayload(p), nil
}
