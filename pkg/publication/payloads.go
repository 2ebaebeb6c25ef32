package publication

import (
	"fmt"
	"strings"
)

// Payload is the kind-specific content of a block. The set of implementations
// is closed to this package.
type Payload interface {
	// Kind returns the block kind this payload belongs to.
	Kind() Kind
	// Validate checks the payload shape.
	Validate() error

	clone() Payload
}

// TextPayload is the content of a text block.
type TextPayload struct {
	Text string `json:"text"`
}

func (TextPayload) Kind() Kind { return KindText }

func (p TextPayload) Validate() error {
	return requireText(KindText, "text", p.Text)
}

func (p TextPayload) clone() Payload { return p }

// DescriptionPayload is the content of a description block.
type DescriptionPayload struct {
	Text string `json:"text"`
}

func (DescriptionPayload) Kind() Kind { return KindDescription }

func (p DescriptionPayload) Validate() error {
	return requireText(KindDescription, "text", p.Text)
}

func (p DescriptionPayload) clone() Payload { return p }

// ImagePayload is the content of an image block.
type ImagePayload struct {
	// Image is the image reference (blob reference while editing, URL after upload).
	Image      string     `json:"image"`
	AltText    string     `json:"altText"`
	Caption    string     `json:"caption"`
	SourceType SourceType `json:"sourceType,omitempty"`
}

func (ImagePayload) Kind() Kind { return KindImage }

func (p ImagePayload) Validate() error {
	if err := requireText(KindImage, "image", p.Image); err != nil {
		return err
	}
	return checkSource(KindImage, p.SourceType)
}

func (p ImagePayload) clone() Payload { return p }

// CarouselImage is one slide of a carousel.
type CarouselImage struct {
	ID      string `json:"id"`
	Image   string `json:"image"`
	AltText string `json:"altText,omitempty"`
	Caption string `json:"caption"`
}

// CarouselPayload is the content of a carousel block.
type CarouselPayload struct {
	Images []CarouselImage `json:"images"`
}

func (CarouselPayload) Kind() Kind { return KindCarousel }

func (p CarouselPayload) Validate() error {
	if len(p.Images) == 0 {
		return invalidPayload(KindCarousel, "at least one image is required")
	}
	seen := make(map[string]struct{}, len(p.Images))
	for i, img := range p.Images {
		if strings.TrimSpace(img.Image) == "" {
			return invalidPayload(KindCarousel, fmt.Sprintf("image %d has no image reference", i))
		}
		if img.ID == "" {
			continue
		}
		if _, dup := seen[img.ID]; dup {
			return invalidPayload(KindCarousel, fmt.Sprintf("image id %q is used twice", img.ID))
		}
		seen[img.ID] = struct{}{}
	}
	return nil
}

func (p CarouselPayload) clone() Payload {
	if p.Images != nil {
		p.Images = append([]CarouselImage(nil), p.Images...)
	}
	return p
}

// TablePayload is the content of a table block. Data is indexed as
// Data[row][column].
type TablePayload struct {
	Rows            int        `json:"rows"`
	Columns         int        `json:"columns"`
	Data            [][]string `json:"data"`
	HasColumnHeader bool       `json:"hasColumnHeader"`
	HasRowHeader    bool       `json:"hasRowHeader"`
}

func (TablePayload) Kind() Kind { return KindTable }

func (p TablePayload) Validate() error {
	if p.Rows < 1 || p.Columns < 1 {
		return invalidPayload(KindTable, fmt.Sprintf("table must have at least one row and column, got %dx%d", p.Rows, p.Columns))
	}
	if len(p.Data) != p.Rows {
		return invalidPayload(KindTable, fmt.Sprintf("expected %d rows of data, got %d", p.Rows, len(p.Data)))
	}
	for i, row := range p.Data {
		if len(row) != p.Columns {
			return invalidPayload(KindTable, fmt.Sprintf("row %d has %d cells, expected %d", i, len(row), p.Columns))
		}
	}
	return nil
}

func (p TablePayload) clone() Payload {
	if p.Data != nil {
		data := make([][]string, len(p.Data))
		for i, row := range p.Data {
			data[i] = append([]string(nil), row...)
		}
		p.Data = data
	}
	return p
}

// VideoPayload is the content of a video block.
type VideoPayload struct {
	Video      string     `json:"video"`
	Caption    string     `json:"caption"`
	SourceType SourceType `json:"sourceType,omitempty"`
}

func (VideoPayload) Kind() Kind { return KindVideo }

func (p VideoPayload) Validate() error {
	if err := requireText(KindVideo, "video", p.Video); err != nil {
		return err
	}
	return checkSource(KindVideo, p.SourceType)
}

func (p VideoPayload) clone() Payload { return p }

// AudioPayload is the content of an audio block.
type AudioPayload struct {
	Audio string `json:"audio"`
	Title string `json:"title"`
	// FileName is the original file name as uploaded.
	FileName   string     `json:"fileName"`
	FileType   string     `json:"fileType"`
	SourceType SourceType `json:"sourceType,omitempty"`
}

func (AudioPayload) Kind() Kind { return KindAudio }

func (p AudioPayload) Validate() error {
	if err := requireText(KindAudio, "audio", p.Audio); err != nil {
		return err
	}
	return checkSource(KindAudio, p.SourceType)
}

func (p AudioPayload) clone() Payload { return p }

// TextImagePayload is the content of a combined text and image block.
// Swapped renders the image before the text.
type TextImagePayload struct {
	Text    string       `json:"text"`
	Image   ImagePayload `json:"image"`
	Swapped bool         `json:"swapped"`
}

func (TextImagePayload) Kind() Kind { return KindTextImage }

func (p TextImagePayload) Validate() error {
	if err := requireText(KindTextImage, "text", p.Text); err != nil {
		return err
	}
	if err := requireText(KindTextImage, "image", p.Image.Image); err != nil {
		return err
	}
	return checkSource(KindTextImage, p.Image.SourceType)
}

func (p TextImagePayload) clone() Payload { return p }

// newPayload returns a zero payload of the given kind, ready to decode into.
func newPayload(k Kind) (Payload, error) {
	switch k {
	case KindText:
		return &TextPayload{}, nil
	case KindDescription:
		return &DescriptionPayload{}, nil
	case KindImage:
		return &ImagePayload{}, nil
	case KindCarousel:
		return &CarouselPayload{}, nil
	case KindTable:
		return &TablePayload{}, nil
	case KindVideo:
		return &VideoPayload{}, nil
	case KindAudio:
		return &AudioPayload{}, nil
	case KindTextImage:
		return &TextImagePayload{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
}

// derefPayload turns a decoded *XPayload back into its value form.
func derefPayload(p Payload) Payload {
	switch v := p.(type) {
	case *TextPayload:
		return *v
	case *DescriptionPayload:
		return *v
	case *ImagePayload:
		return *v
	case *CarouselPayload:
		return *v
	case *TablePayload:
		return *v
	case *VideoPayload:
		return *v
	case *AudioPayload:
		return *v
	case *TextImagePayload:
		return *v
	}
	return p
}

func requireText(k Kind, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalidPayload(k, field+" is required")
	}
	return nil
}

func checkSource(k Kind, s SourceType) error {
	if !s.IsValid() {
		return invalidPayload(k, fmt.Sprintf("unknown source type %q", s))
	}
	return nil
}

func invalidPayload(k Kind, msg string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidPayload, k, msg)
}
