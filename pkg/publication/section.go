package publication

// BlockOrder is a positioned reference from a section to a block. It does not
// verify that the referenced block exists; the publication does.
type BlockOrder struct {
	BlockID BlockID `json:"blockId"`
	Index   int     `json:"index"`
}

// NewBlockOrder creates a block order entry.
func NewBlockOrder(id BlockID, index int) (BlockOrder, error) {
	if id.IsZero() {
		return BlockOrder{}, &BlockError{BlockID: id, Op: "order", Err: ErrInvalidBlockID}
	}
	if index < 0 {
		return BlockOrder{}, &BlockError{BlockID: id, Op: "order", Err: ErrInvalidPosition}
	}
	return BlockOrder{BlockID: id, Index: index}, nil
}

// BlockSection is an optionally titled, ordered grouping of block references.
// The order of entries is the rendering order; indexes need not be contiguous.
type BlockSection struct {
	id     SectionID
	title  *string
	orders []BlockOrder
}

// NewBlockSection creates an empty section. A nil title means untitled.
func NewBlockSection(id SectionID, title *string) *BlockSection {
	if id.IsZero() {
		id = NewSectionID()
	}
	s := &BlockSection{id: id}
	s.SetTitle(title)
	return s
}

// ID returns the section identity.
func (s *BlockSection) ID() SectionID { return s.id }

// Title returns the section title, or nil when untitled.
func (s *BlockSection) Title() *string {
	if s.title == nil {
		return nil
	}
	t := *s.title
	return &t
}

// SetTitle replaces the title. Nil clears it.
func (s *BlockSection) SetTitle(title *string) {
	if title == nil {
		s.title = nil
		return
	}
	t := *title
	s.title = &t
}

// Append adds an entry at the end of the section, after all existing entries.
func (s *BlockSection) Append(order BlockOrder) {
	s.orders = append(s.orders, order)
}

// Orders returns a copy of the entries in rendering order.
func (s *BlockSection) Orders() []BlockOrder {
	if s.orders == nil {
		return nil
	}
	out := make([]BlockOrder, len(s.orders))
	copy(out, s.orders)
	return out
}

// BlockIDs returns the referenced block ids in rendering order.
func (s *BlockSection) BlockIDs() []BlockID {
	ids := make([]BlockID, len(s.orders))
	for i, o := range s.orders {
		ids[i] = o.BlockID
	}
	return ids
}

// Len returns the number of entries.
func (s *BlockSection) Len() int { return len(s.orders) }

// References reports whether any entry points at the block.
func (s *BlockSection) References(id BlockID) bool {
	for _, o := range s.orders {
		if o.BlockID == id {
			return true
		}
	}
	return false
}

// nextIndex returns one past the highest index, or 0 for an empty section.
func (s *BlockSection) nextIndex() int {
	next := 0
	for _, o := range s.orders {
		if o.Index >= next {
			next = o.Index + 1
		}
	}
	return next
}

// insert places the entry before the first entry with a greater index.
func (s *BlockSection) insert(order BlockOrder) {
	at := len(s.orders)
	for i, o := range s.orders {
		if o.Index > order.Index {
			at = i
			break
		}
	}
	s.orders = append(s.orders, BlockOrder{})
	copy(s.orders[at+1:], s.orders[at:])
	s.orders[at] = order
}

// remove drops the first entry matching id and index.
func (s *BlockSection) remove(id BlockID, index int) bool {
	for i, o := range s.orders {
		if o.BlockID == id && o.Index == index {
			s.orders = append(s.orders[:i], s.orders[i+1:]...)
			return true
		}
	}
	return false
}

// detach drops every entry referencing id and returns how many were removed.
func (s *BlockSection) detach(id BlockID) int {
	kept := s.orders[:0]
	removed := 0
	for _, o := range s.orders {
		if o.BlockID == id {
			removed++
			continue
		}
		kept = append(kept, o)
	}
	s.orders = kept
	return removed
}

// normalize renumbers entries 0..n-1 keeping their order.
func (s *BlockSection) normalize() {
	for i := range s.orders {
		s.orders[i].Index = i
	}
}

func (s *BlockSection) clone() *BlockSection {
	c := &BlockSection{id: s.id, orders: s.Orders()}
	c.SetTitle(s.title)
	return c
}
