package publication

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Block is a unit of editorial content of one fixed kind. The kind is taken
// from the payload and never changes for the lifetime of the block.
type Block struct {
	id             BlockID
	payload        Payload
	accessCriteria map[string]interface{}
}

// BlockOption configures a Block at construction time.
type BlockOption func(*Block) error

// WithAccessCriteria attaches access control data to a block. The map is
// opaque to this package. It is stored in its JSON form (numbers as float64,
// nested objects as map[string]interface{}, lists as []interface{}) so that
// every wire format decodes it back unchanged.
func WithAccessCriteria(criteria map[string]interface{}) BlockOption {
	return func(b *Block) error {
		if len(criteria) == 0 {
			b.accessCriteria = nil
			return nil
		}
		normalized, err := normalizeCriteria(criteria)
		if err != nil {
			return err
		}
		b.accessCriteria = normalized
		return nil
	}
}

func normalizeCriteria(criteria map[string]interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(criteria)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccessCriteria, err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccessCriteria, err)
	}
	return out, nil
}

// NewBlock creates a block with the given identity and payload.
func NewBlock(id BlockID, payload Payload, opts ...BlockOption) (*Block, error) {
	if id.IsZero() {
		return nil, &BlockError{BlockID: id, Op: "create", Err: ErrInvalidBlockID}
	}
	if payload == nil {
		return nil, &BlockError{BlockID: id, Op: "create", Err: ErrInvalidPayload}
	}
	payload = derefPayload(payload)
	if err := payload.Validate(); err != nil {
		return nil, &BlockError{BlockID: id, Op: "create", Err: err}
	}

	b := &Block{
		id:      id,
		payload: payload.clone(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(b); err != nil {
			return nil, &BlockError{BlockID: id, Op: "create", Err: err}
		}
	}
	return b, nil
}

// MustBlock is like NewBlock but panics on error. Intended for fixtures.
func MustBlock(id BlockID, payload Payload, opts ...BlockOption) *Block {
	b, err := NewBlock(id, payload, opts...)
	if err != nil {
		panic(err)
	}
	return b
}

// ID returns the block identity.
func (b *Block) ID() BlockID { return b.id }

// Kind returns the block kind.
func (b *Block) Kind() Kind { return b.payload.Kind() }

// Payload returns a copy of the block payload.
func (b *Block) Payload() Payload { return b.payload.clone() }

// AccessCriteria returns a copy of the access criteria, or nil.
func (b *Block) AccessCriteria() map[string]interface{} {
	return maps.Clone(b.accessCriteria)
}

// WithPayload returns a copy of the block carrying a new payload. The new
// payload must be of the same kind.
func (b *Block) WithPayload(payload Payload) (*Block, error) {
	if payload == nil {
		return nil, &BlockError{BlockID: b.id, Op: "update", Err: ErrInvalidPayload}
	}
	payload = derefPayload(payload)
	if payload.Kind() != b.Kind() {
		return nil, &BlockError{BlockID: b.id, Op: "update", Err: ErrKindMismatch}
	}
	return NewBlock(b.id, payload, WithAccessCriteria(b.accessCriteria))
}

func (b *Block) clone() *Block {
	return &Block{
		id:             b.id,
		payload:        b.payload.clone(),
		accessCriteria: maps.Clone(b.accessCriteria),
	}
}
