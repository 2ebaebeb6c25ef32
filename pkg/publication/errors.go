package publication

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrDuplicateBlock indicates a block with the same identity is already
	// part of the publication, in any kind collection.
	ErrDuplicateBlock = errors.New("duplicate block")

	// ErrDanglingReference indicates a block order references a block that
	// is not part of the publication.
	ErrDanglingReference = errors.New("dangling block reference")

	// ErrReferencedBlock indicates a block cannot be removed while a section
	// still references it.
	ErrReferencedBlock = errors.New("block is still referenced")

	// ErrBlockNotFound indicates a block was not found
	ErrBlockNotFound = errors.New("block not found")

	// ErrSectionNotFound indicates a section was not found
	ErrSectionNotFound = errors.New("section not found")

	// ErrOrderNotFound indicates a block order entry was not found in a section
	ErrOrderNotFound = errors.New("block order not found")

	// ErrDuplicateSection indicates a section id is used twice
	ErrDuplicateSection = errors.New("duplicate section")

	ErrInvalidBlockID        = errors.New("invalid block id")
	ErrInvalidSectionID      = errors.New("invalid section id")
	ErrInvalidPayload        = errors.New("invalid block payload")
	ErrInvalidAccessCriteria = errors.New("invalid access criteria")
	ErrInvalidPosition       = errors.New("invalid position")
	ErrKindMismatch          = errors.New("block kind mismatch")
	ErrUnknownKind           = errors.New("unknown block kind")
)

// BlockError represents an error related to a block operation
type BlockError struct {
	BlockID BlockID
	Op      string
	Err     error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block operation %s failed for block %q: %v", e.Op, e.BlockID, e.Err)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}

// SectionError represents an error related to a section operation
type SectionError struct {
	SectionID SectionID
	Op        string
	Err       error
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("section operation %s failed for section %q: %v", e.Op, e.SectionID, e.Err)
}

func (e *SectionError) Unwrap() error {
	return e.Err
}

// IntegrityViolation describes one broken invariant found by CheckIntegrity.
type IntegrityViolation struct {
	SectionID SectionID
	BlockID   BlockID
	Index     int
	Err       error
}

func (v *IntegrityViolation) Error() string {
	if v.SectionID.IsZero() {
		return fmt.Sprintf("integrity violation on block %q: %v", v.BlockID, v.Err)
	}
	return fmt.Sprintf("integrity violation in section %q at index %d (block %q): %v", v.SectionID, v.Index, v.BlockID, v.Err)
}

func (v *IntegrityViolation) Unwrap() error {
	return v.Err
}
