package publication

import (
	"fmt"
	"reflect"
)

// Document is the wire representation of a publication. Blocks are grouped
// in one list per kind; every block also carries its kind in Type.
type Document struct {
	Title             string            `json:"title"`
	Sections          []SectionDocument `json:"sections"`
	TextBlocks        []BlockDocument   `json:"textBlocks"`
	DescriptionBlocks []BlockDocument   `json:"descriptionBlocks"`
	ImageBlocks       []BlockDocument   `json:"imageBlocks"`
	CarouselBlocks    []BlockDocument   `json:"carouselBlocks"`
	TableBlocks       []BlockDocument   `json:"tableBlocks"`
	VideoBlocks       []BlockDocument   `json:"videoBlocks"`
	AudioBlocks       []BlockDocument   `json:"audioBlocks"`
	TextImageBlocks   []BlockDocument   `json:"textImageBlocks"`
}

// FlatDocument is the tagged single-list layout of a publication.
type FlatDocument struct {
	Title    string            `json:"title"`
	Sections []SectionDocument `json:"sections"`
	Blocks   []BlockDocument   `json:"blocks"`
}

// SectionDocument is the wire representation of a section.
type SectionDocument struct {
	ID     SectionID    `json:"id,omitempty"`
	Title  *string      `json:"title"`
	Orders []BlockOrder `json:"orders"`
}

// BlockDocument is the wire representation of a block. Type is the kind
// discriminator used to decode Content.
type BlockDocument struct {
	BlockID        BlockID                `json:"blockId"`
	Type           Kind                   `json:"type"`
	Content        Payload                `json:"content"`
	AccessCriteria map[string]interface{} `json:"accessCriteria,omitempty"`
}

// collection returns a pointer to the list holding blocks of kind k.
func (d *Document) collection(k Kind) *[]BlockDocument {
	switch k {
	case KindText:
		return &d.TextBlocks
	case KindDescription:
		return &d.DescriptionBlocks
	case KindImage:
		return &d.ImageBlocks
	case KindCarousel:
		return &d.CarouselBlocks
	case KindTable:
		return &d.TableBlocks
	case KindVideo:
		return &d.VideoBlocks
	case KindAudio:
		return &d.AudioBlocks
	case KindTextImage:
		return &d.TextImageBlocks
	}
	return nil
}

// ToDocument converts the publication into its wire representation. Kind
// collections are sorted by block id.
func (p *Publication) ToDocument() Document {
	doc := Document{
		Title:    p.title,
		Sections: make([]SectionDocument, len(p.sections)),
	}
	for i, s := range p.sections {
		orders := make([]BlockOrder, len(s.orders))
		copy(orders, s.orders)
		doc.Sections[i] = SectionDocument{
			ID:     s.id,
			Title:  s.Title(),
			Orders: orders,
		}
	}
	for _, k := range kinds {
		blocks := p.Blocks(k)
		list := make([]BlockDocument, len(blocks))
		for i, b := range blocks {
			list[i] = BlockDocument{
				BlockID:        b.id,
				Type:           k,
				Content:        b.payload,
				AccessCriteria: b.accessCriteria,
			}
		}
		*doc.collection(k) = list
	}
	return doc
}

// FromDocument rebuilds a publication from its wire representation. The same
// integrity rules as the editing operations apply, so duplicate identities and
// dangling references are rejected.
func FromDocument(doc Document) (*Publication, error) {
	p := New(doc.Title)
	for _, k := range kinds {
		for _, bd := range *doc.collection(k) {
			if bd.Type != k {
				return nil, &BlockError{BlockID: bd.BlockID, Op: "decode", Err: fmt.Errorf("%w: %q in %s collection", ErrKindMismatch, bd.Type, k)}
			}
			b, err := bd.block()
			if err != nil {
				return nil, err
			}
			if err := p.AddBlock(b); err != nil {
				return nil, err
			}
		}
	}
	for _, sd := range doc.Sections {
		s := NewBlockSection(sd.ID, sd.Title)
		for _, o := range sd.Orders {
			if o.BlockID.IsZero() {
				return nil, &SectionError{SectionID: s.id, Op: "decode", Err: ErrInvalidBlockID}
			}
			s.Append(o)
		}
		if err := p.AttachSection(s); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (bd BlockDocument) block() (*Block, error) {
	if bd.Content == nil {
		return nil, &BlockError{BlockID: bd.BlockID, Op: "decode", Err: ErrInvalidPayload}
	}
	if bd.Content.Kind() != bd.Type {
		return nil, &BlockError{BlockID: bd.BlockID, Op: "decode", Err: ErrKindMismatch}
	}
	return NewBlock(bd.BlockID, bd.Content, WithAccessCriteria(bd.AccessCriteria))
}

// Flatten converts the document into the tagged single-list layout. Blocks are
// listed kind by kind in canonical order.
func (d Document) Flatten() FlatDocument {
	flat := FlatDocument{
		Title:    d.Title,
		Sections: d.Sections,
		Blocks:   []BlockDocument{},
	}
	for _, k := range kinds {
		flat.Blocks = append(flat.Blocks, *d.collection(k)...)
	}
	return flat
}

// Expand converts the tagged single-list layout back into per-kind lists.
func (f FlatDocument) Expand() (Document, error) {
	doc := Document{Title: f.Title, Sections: f.Sections}
	for _, k := range kinds {
		*doc.collection(k) = []BlockDocument{}
	}
	for _, bd := range f.Blocks {
		list := doc.collection(bd.Type)
		if list == nil {
			return Document{}, &BlockError{BlockID: bd.BlockID, Op: "expand", Err: fmt.Errorf("%w: %q", ErrUnknownKind, bd.Type)}
		}
		*list = append(*list, bd)
	}
	return doc, nil
}

// Equal reports whether two publications are structurally equal: same title,
// same sections in the same order with the same entries, same blocks.
func (p *Publication) Equal(other *Publication) bool {
	if p == nil || other == nil {
		return p == other
	}
	return reflect.DeepEqual(p.ToDocument(), other.ToDocument())
}
