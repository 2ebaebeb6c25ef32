package publication

import (
	"fmt"

	"github.com/google/uuid"
)

// BlockID is the stable identity of a block. Any non-empty string is valid.
type BlockID string

// NewBlockID returns a new random block identity.
func NewBlockID() BlockID {
	return BlockID(uuid.NewString())
}

func (id BlockID) String() string { return string(id) }

// IsZero reports whether the id is empty.
func (id BlockID) IsZero() bool { return id == "" }

// SectionID identifies a section within a publication.
type SectionID string

// NewSectionID returns a new random section identity.
func NewSectionID() SectionID {
	return SectionID(uuid.NewString())
}

func (id SectionID) String() string { return string(id) }

// IsZero reports whether the id is empty.
func (id SectionID) IsZero() bool { return id == "" }

// Kind is the concrete media kind of a block.
type Kind string

// Block kinds. The set is closed.
const (
	KindText        Kind = "text"
	KindDescription Kind = "description"
	KindImage       Kind = "image"
	KindCarousel    Kind = "carousel"
	KindTable       Kind = "table"
	KindVideo       Kind = "video"
	KindAudio       Kind = "audio"
	KindTextImage   Kind = "text_image"
)

var kinds = []Kind{
	KindText,
	KindDescription,
	KindImage,
	KindCarousel,
	KindTable,
	KindVideo,
	KindAudio,
	KindTextImage,
}

// Kinds returns every block kind in canonical order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

func (k Kind) String() string { return string(k) }

// ParseKind converts a string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// SourceType tells where a media reference points to.
type SourceType string

const (
	SourceTypeNone SourceType = ""
	SourceTypeBlob SourceType = "blob"
	SourceTypeURL  SourceType = "url"
)

// IsValid reports whether s is empty or a known source type.
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypeNone, SourceTypeBlob, SourceTypeURL:
		return true
	}
	return false
}
