package publication

import (
	"errors"
	"sort"
)

// Publication is the aggregate root: a title, an ordered list of sections and
// every block used anywhere in the publication.
type Publication struct {
	title    string
	sections []*BlockSection
	blocks   map[BlockID]*Block
}

// New creates an empty publication.
func New(title string) *Publication {
	return &Publication{
		title:  title,
		blocks: make(map[BlockID]*Block),
	}
}

// Title returns the publication title.
func (p *Publication) Title() string { return p.title }

// SetTitle replaces the publication title.
func (p *Publication) SetTitle(title string) { p.title = title }

// Block operations

// AddBlock inserts the block into the collection matching its kind. It fails
// with ErrDuplicateBlock when a block with the same identity exists in any
// kind collection.
func (p *Publication) AddBlock(b *Block) error {
	if b == nil {
		return &BlockError{Op: "add", Err: ErrInvalidPayload}
	}
	if b.id.IsZero() {
		return &BlockError{BlockID: b.id, Op: "add", Err: ErrInvalidBlockID}
	}
	if _, exists := p.blocks[b.id]; exists {
		return &BlockError{BlockID: b.id, Op: "add", Err: ErrDuplicateBlock}
	}
	p.blocks[b.id] = b.clone()
	return nil
}

// UpdateBlock replaces the payload of an existing block. The kind must not
// change.
func (p *Publication) UpdateBlock(id BlockID, payload Payload) error {
	b, ok := p.blocks[id]
	if !ok {
		return &BlockError{BlockID: id, Op: "update", Err: ErrBlockNotFound}
	}
	updated, err := b.WithPayload(payload)
	if err != nil {
		return err
	}
	p.blocks[id] = updated
	return nil
}

// RemoveBlock deletes a block. It fails with ErrReferencedBlock while any
// section still references the block; use DetachBlock first to drop those
// references.
func (p *Publication) RemoveBlock(id BlockID) error {
	if _, ok := p.blocks[id]; !ok {
		return &BlockError{BlockID: id, Op: "remove", Err: ErrBlockNotFound}
	}
	for _, s := range p.sections {
		if s.References(id) {
			return &BlockError{BlockID: id, Op: "remove", Err: ErrReferencedBlock}
		}
	}
	delete(p.blocks, id)
	return nil
}

// DetachBlock removes every section entry that references the block and
// returns how many entries were removed. The block itself stays.
func (p *Publication) DetachBlock(id BlockID) (int, error) {
	if _, ok := p.blocks[id]; !ok {
		return 0, &BlockError{BlockID: id, Op: "detach", Err: ErrBlockNotFound}
	}
	removed := 0
	for _, s := range p.sections {
		removed += s.detach(id)
	}
	return removed, nil
}

// Block returns a copy of the block with the given identity.
func (p *Publication) Block(id BlockID) (*Block, error) {
	b, ok := p.blocks[id]
	if !ok {
		return nil, &BlockError{BlockID: id, Op: "get", Err: ErrBlockNotFound}
	}
	return b.clone(), nil
}

// HasBlock reports whether the block is part of the publication.
func (p *Publication) HasBlock(id BlockID) bool {
	_, ok := p.blocks[id]
	return ok
}

// Blocks returns copies of all blocks of one kind, sorted by identity.
func (p *Publication) Blocks(kind Kind) []*Block {
	var out []*Block
	for _, b := range p.blocks {
		if b.Kind() == kind {
			out = append(out, b.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (p *Publication) TextBlocks() []*Block        { return p.Blocks(KindText) }
func (p *Publication) DescriptionBlocks() []*Block { return p.Blocks(KindDescription) }
func (p *Publication) ImageBlocks() []*Block       { return p.Blocks(KindImage) }
func (p *Publication) CarouselBlocks() []*Block    { return p.Blocks(KindCarousel) }
func (p *Publication) TableBlocks() []*Block       { return p.Blocks(KindTable) }
func (p *Publication) VideoBlocks() []*Block       { return p.Blocks(KindVideo) }
func (p *Publication) AudioBlocks() []*Block       { return p.Blocks(KindAudio) }
func (p *Publication) TextImageBlocks() []*Block   { return p.Blocks(KindTextImage) }

// BlockCount returns the number of blocks across all kinds.
func (p *Publication) BlockCount() int { return len(p.blocks) }

// CountByKind returns the number of blocks per kind. Every kind is present.
func (p *Publication) CountByKind() map[Kind]int {
	counts := make(map[Kind]int, len(kinds))
	for _, k := range kinds {
		counts[k] = 0
	}
	for _, b := range p.blocks {
		counts[b.Kind()]++
	}
	return counts
}

// UnreferencedBlocks returns the ids of blocks no section points at, sorted.
func (p *Publication) UnreferencedBlocks() []BlockID {
	used := make(map[BlockID]struct{})
	for _, s := range p.sections {
		for _, o := range s.orders {
			used[o.BlockID] = struct{}{}
		}
	}
	var out []BlockID
	for id := range p.blocks {
		if _, ok := used[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Section operations

// AddSection appends a new empty section and returns its identity.
func (p *Publication) AddSection(title *string) SectionID {
	s := NewBlockSection(NewSectionID(), title)
	p.sections = append(p.sections, s)
	return s.id
}

// AddSectionWithID appends a new empty section with a caller-chosen identity.
func (p *Publication) AddSectionWithID(id SectionID, title *string) error {
	if id.IsZero() {
		return &SectionError{SectionID: id, Op: "add", Err: ErrInvalidSectionID}
	}
	if p.sectionIndex(id) >= 0 {
		return &SectionError{SectionID: id, Op: "add", Err: ErrDuplicateSection}
	}
	p.sections = append(p.sections, NewBlockSection(id, title))
	return nil
}

// AttachSection appends a section built outside the publication. Every entry
// must reference a block of this publication.
func (p *Publication) AttachSection(s *BlockSection) error {
	if s == nil {
		return &SectionError{Op: "attach", Err: ErrSectionNotFound}
	}
	if s.id.IsZero() {
		return &SectionError{Op: "attach", Err: ErrInvalidSectionID}
	}
	if p.sectionIndex(s.id) >= 0 {
		return &SectionError{SectionID: s.id, Op: "attach", Err: ErrDuplicateSection}
	}
	for _, o := range s.orders {
		if o.Index < 0 {
			return &BlockError{BlockID: o.BlockID, Op: "attach_section", Err: ErrInvalidPosition}
		}
		if _, ok := p.blocks[o.BlockID]; !ok {
			return &BlockError{BlockID: o.BlockID, Op: "attach_section", Err: ErrDanglingReference}
		}
	}
	p.sections = append(p.sections, s.clone())
	return nil
}

// RemoveSection deletes a section together with its entries. Blocks are kept.
func (p *Publication) RemoveSection(id SectionID) error {
	i := p.sectionIndex(id)
	if i < 0 {
		return &SectionError{SectionID: id, Op: "remove", Err: ErrSectionNotFound}
	}
	p.sections = append(p.sections[:i], p.sections[i+1:]...)
	return nil
}

// MoveSection moves a section to position to in the section list.
func (p *Publication) MoveSection(id SectionID, to int) error {
	from := p.sectionIndex(id)
	if from < 0 {
		return &SectionError{SectionID: id, Op: "move", Err: ErrSectionNotFound}
	}
	if to < 0 || to >= len(p.sections) {
		return &SectionError{SectionID: id, Op: "move", Err: ErrInvalidPosition}
	}
	s := p.sections[from]
	p.sections = append(p.sections[:from], p.sections[from+1:]...)
	p.sections = append(p.sections[:to], append([]*BlockSection{s}, p.sections[to:]...)...)
	return nil
}

// SetSectionTitle replaces the title of a section. Nil clears it.
func (p *Publication) SetSectionTitle(id SectionID, title *string) error {
	s, err := p.section(id, "set_title")
	if err != nil {
		return err
	}
	s.SetTitle(title)
	return nil
}

// Section returns a copy of the section.
func (p *Publication) Section(id SectionID) (*BlockSection, error) {
	s, err := p.section(id, "get")
	if err != nil {
		return nil, err
	}
	return s.clone(), nil
}

// Sections returns copies of all sections in order.
func (p *Publication) Sections() []*BlockSection {
	out := make([]*BlockSection, len(p.sections))
	for i, s := range p.sections {
		out[i] = s.clone()
	}
	return out
}

// SectionCount returns the number of sections.
func (p *Publication) SectionCount() int { return len(p.sections) }

// Block order operations

// AddSectionOrder places a reference to blockID at position in the section.
// The entry goes after every entry whose index is not greater than position.
// It fails with ErrDanglingReference when the block is not part of the
// publication.
func (p *Publication) AddSectionOrder(sectionID SectionID, blockID BlockID, position int) error {
	s, err := p.section(sectionID, "add_order")
	if err != nil {
		return err
	}
	order, err := NewBlockOrder(blockID, position)
	if err != nil {
		return err
	}
	if _, ok := p.blocks[blockID]; !ok {
		return &BlockError{BlockID: blockID, Op: "add_order", Err: ErrDanglingReference}
	}
	s.insert(order)
	return nil
}

// AppendSectionOrder adds a reference at the end of the section, one past the
// highest index in use. It returns the assigned index.
func (p *Publication) AppendSectionOrder(sectionID SectionID, blockID BlockID) (int, error) {
	s, err := p.section(sectionID, "append_order")
	if err != nil {
		return 0, err
	}
	if blockID.IsZero() {
		return 0, &BlockError{BlockID: blockID, Op: "append_order", Err: ErrInvalidBlockID}
	}
	if _, ok := p.blocks[blockID]; !ok {
		return 0, &BlockError{BlockID: blockID, Op: "append_order", Err: ErrDanglingReference}
	}
	index := s.nextIndex()
	s.Append(BlockOrder{BlockID: blockID, Index: index})
	return index, nil
}

// RemoveSectionOrder drops the entry referencing blockID at index. Remaining
// indexes are left as they are; call NormalizeSection to renumber.
func (p *Publication) RemoveSectionOrder(sectionID SectionID, blockID BlockID, index int) error {
	s, err := p.section(sectionID, "remove_order")
	if err != nil {
		return err
	}
	if !s.remove(blockID, index) {
		return &BlockError{BlockID: blockID, Op: "remove_order", Err: ErrOrderNotFound}
	}
	return nil
}

// NormalizeSection renumbers the entries of one section to 0..n-1.
func (p *Publication) NormalizeSection(id SectionID) error {
	s, err := p.section(id, "normalize")
	if err != nil {
		return err
	}
	s.normalize()
	return nil
}

// Normalize renumbers the entries of every section to 0..n-1.
func (p *Publication) Normalize() {
	for _, s := range p.sections {
		s.normalize()
	}
}

// CheckIntegrity verifies every invariant of the aggregate and returns all
// violations joined, or nil.
func (p *Publication) CheckIntegrity() error {
	var errs []error
	seen := make(map[SectionID]struct{}, len(p.sections))
	for _, s := range p.sections {
		if _, dup := seen[s.id]; dup {
			errs = append(errs, &IntegrityViolation{SectionID: s.id, Index: -1, Err: ErrDuplicateSection})
		}
		seen[s.id] = struct{}{}
		for _, o := range s.orders {
			if o.Index < 0 {
				errs = append(errs, &IntegrityViolation{SectionID: s.id, BlockID: o.BlockID, Index: o.Index, Err: ErrInvalidPosition})
			}
			if _, ok := p.blocks[o.BlockID]; !ok {
				errs = append(errs, &IntegrityViolation{SectionID: s.id, BlockID: o.BlockID, Index: o.Index, Err: ErrDanglingReference})
			}
		}
	}
	for _, id := range p.sortedBlockIDs() {
		b := p.blocks[id]
		if err := b.payload.Validate(); err != nil {
			errs = append(errs, &IntegrityViolation{BlockID: id, Err: err})
		}
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy of the publication.
func (p *Publication) Clone() *Publication {
	c := New(p.title)
	for id, b := range p.blocks {
		c.blocks[id] = b.clone()
	}
	if p.sections != nil {
		c.sections = make([]*BlockSection, len(p.sections))
		for i, s := range p.sections {
			c.sections[i] = s.clone()
		}
	}
	return c
}

func (p *Publication) section(id SectionID, op string) (*BlockSection, error) {
	i := p.sectionIndex(id)
	if i < 0 {
		return nil, &SectionError{SectionID: id, Op: op, Err: ErrSectionNotFound}
	}
	return p.sections[i], nil
}

func (p *Publication) sectionIndex(id SectionID) int {
	for i, s := range p.sections {
		if s.id == id {
			return i
		}
	}
	return -1
}

func (p *Publication) sortedBlockIDs() []BlockID {
	ids := make([]BlockID, 0, len(p.blocks))
	for id := range p.blocks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
