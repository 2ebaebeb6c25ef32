package publication_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-publication/pkg/publication"
)

func strPtr(s string) *string { return &s }

func textBlock(t *testing.T, id, text string) *publication.Block {
	t.Helper()
	b, err := publication.NewBlock(publication.BlockID(id), publication.TextPayload{Text: text})
	require.NoError(t, err)
	return b
}

func imageBlock(t *testing.T, id, image string) *publication.Block {
	t.Helper()
	b, err := publication.NewBlock(publication.BlockID(id), publication.ImagePayload{
		Image:      image,
		AltText:    "alt",
		Caption:    "caption",
		SourceType: publication.SourceTypeURL,
	})
	require.NoError(t, err)
	return b
}

// weeklyDigest builds the "Weekly Digest" publication with one "Top Story"
// section listing T1 then I1.
func weeklyDigest(t *testing.T) (*publication.Publication, publication.SectionID) {
	t.Helper()
	pub := publication.New("Weekly Digest")
	require.NoError(t, pub.AddBlock(textBlock(t, "T1", "Breaking news...")))
	require.NoError(t, pub.AddBlock(imageBlock(t, "I1", "https://cdn.example.com/i1.jpg")))

	sectionID := pub.AddSection(strPtr("Top Story"))
	require.NoError(t, pub.AddSectionOrder(sectionID, "T1", 0))
	require.NoError(t, pub.AddSectionOrder(sectionID, "I1", 1))
	return pub, sectionID
}

func TestWeeklyDigestScenario(t *testing.T) {
	pub, sectionID := weeklyDigest(t)

	section, err := pub.Section(sectionID)
	require.NoError(t, err)
	require.NotNil(t, section.Title())
	assert.Equal(t, "Top Story", *section.Title())
	assert.Equal(t, []publication.BlockOrder{
		{BlockID: "T1", Index: 0},
		{BlockID: "I1", Index: 1},
	}, section.Orders())

	assert.Equal(t, 2, pub.BlockCount())
	assert.Len(t, pub.TextBlocks(), 1)
	assert.Len(t, pub.ImageBlocks(), 1)
	assert.NoError(t, pub.CheckIntegrity())
}

func TestAddBlock(t *testing.T) {
	t.Run("duplicate in same kind", func(t *testing.T) {
		pub := publication.New("p")
		require.NoError(t, pub.AddBlock(textBlock(t, "b1", "first")))

		err := pub.AddBlock(textBlock(t, "b1", "second"))
		assert.ErrorIs(t, err, publication.ErrDuplicateBlock)

		blocks := pub.TextBlocks()
		require.Len(t, blocks, 1)
		assert.Equal(t, publication.TextPayload{Text: "first"}, blocks[0].Payload())
	})

	t.Run("duplicate across kinds", func(t *testing.T) {
		pub := publication.New("p")
		require.NoError(t, pub.AddBlock(textBlock(t, "b1", "text")))

		err := pub.AddBlock(imageBlock(t, "b1", "img.png"))
		assert.ErrorIs(t, err, publication.ErrDuplicateBlock)

		var blockErr *publication.BlockError
		require.True(t, errors.As(err, &blockErr))
		assert.Equal(t, publication.BlockID("b1"), blockErr.BlockID)
		assert.Equal(t, "add", blockErr.Op)

		assert.Empty(t, pub.ImageBlocks())
		assert.Equal(t, 1, pub.BlockCount())
	})

	t.Run("nil block", func(t *testing.T) {
		pub := publication.New("p")
		assert.Error(t, pub.AddBlock(nil))
	})

	t.Run("kind collections partition blocks", func(t *testing.T) {
		pub := publication.New("p")
		require.NoError(t, pub.AddBlock(textBlock(t, "t", "text")))
		require.NoError(t, pub.AddBlock(imageBlock(t, "i", "img.png")))
		require.NoError(t, pub.AddBlock(publication.MustBlock("d", publication.DescriptionPayload{Text: "desc"})))

		total := 0
		for _, k := range publication.Kinds() {
			total += len(pub.Blocks(k))
		}
		assert.Equal(t, pub.BlockCount(), total)

		counts := pub.CountByKind()
		assert.Equal(t, 1, counts[publication.KindText])
		assert.Equal(t, 1, counts[publication.KindImage])
		assert.Equal(t, 1, counts[publication.KindDescription])
		assert.Equal(t, 0, counts[publication.KindVideo])
	})
}

func TestAddSectionOrder(t *testing.T) {
	t.Run("dangling reference on empty publication", func(t *testing.T) {
		pub := publication.New("p")
		sectionID := pub.AddSection(nil)

		err := pub.AddSectionOrder(sectionID, "nonexistent-id", 0)
		assert.ErrorIs(t, err, publication.ErrDanglingReference)

		section, err := pub.Section(sectionID)
		require.NoError(t, err)
		assert.Equal(t, 0, section.Len())
	})

	t.Run("unknown section", func(t *testing.T) {
		pub := publication.New("p")
		require.NoError(t, pub.AddBlock(textBlock(t, "b1", "x")))

		err := pub.AddSectionOrder("missing", "b1", 0)
		assert.ErrorIs(t, err, publication.ErrSectionNotFound)
	})

	t.Run("negative position", func(t *testing.T) {
		pub := publication.New("p")
		require.NoError(t, pub.AddBlock(textBlock(t, "b1", "x")))
		sectionID := pub.AddSection(nil)

		err := pub.AddSectionOrder(sectionID, "b1", -1)
		assert.ErrorIs(t, err, publication.ErrInvalidPosition)
	})

	t.Run("entries stay ordered by position", func(t *testing.T) {
		pub := publication.New("p")
		for _, id := range []string{"a", "b", "c", "d"} {
			require.NoError(t, pub.AddBlock(textBlock(t, id, id)))
		}
		sectionID := pub.AddSection(nil)
		require.NoError(t, pub.AddSectionOrder(sectionID, "a", 10))
		require.NoError(t, pub.AddSectionOrder(sectionID, "b", 5))
		require.NoError(t, pub.AddSectionOrder(sectionID, "c", 10))
		require.NoError(t, pub.AddSectionOrder(sectionID, "d", 0))

		section, err := pub.Section(sectionID)
		require.NoError(t, err)
		assert.Equal(t, []publication.BlockID{"d", "b", "a", "c"}, section.BlockIDs())
	})

	t.Run("append uses next index", func(t *testing.T) {
		pub := publication.New("p")
		require.NoError(t, pub.AddBlock(textBlock(t, "a", "a")))
		require.NoError(t, pub.AddBlock(textBlock(t, "b", "b")))
		sectionID := pub.AddSection(nil)

		idx, err := pub.AppendSectionOrder(sectionID, "a")
		require.NoError(t, err)
		assert.Equal(t, 0, idx)

		require.NoError(t, pub.AddSectionOrder(sectionID, "b", 7))
		idx, err = pub.AppendSectionOrder(sectionID, "a")
		require.NoError(t, err)
		assert.Equal(t, 8, idx)

		_, err = pub.AppendSectionOrder(sectionID, "ghost")
		assert.ErrorIs(t, err, publication.ErrDanglingReference)
	})
}

func TestRemoveBlock(t *testing.T) {
	t.Run("rejected while referenced", func(t *testing.T) {
		pub, _ := weeklyDigest(t)
		before := pub.Clone()

		err := pub.RemoveBlock("T1")
		assert.ErrorIs(t, err, publication.ErrReferencedBlock)
		assert.True(t, pub.Equal(before), "publication must be unchanged")
	})

	t.Run("succeeds after detaching references", func(t *testing.T) {
		pub, sectionID := weeklyDigest(t)

		removed, err := pub.DetachBlock("T1")
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		require.NoError(t, pub.RemoveBlock("T1"))
		assert.False(t, pub.HasBlock("T1"))
		assert.NoError(t, pub.CheckIntegrity())

		section, err := pub.Section(sectionID)
		require.NoError(t, err)
		assert.Equal(t, []publication.BlockID{"I1"}, section.BlockIDs())
	})

	t.Run("unreferenced block", func(t *testing.T) {
		pub := publication.New("p")
		require.NoError(t, pub.AddBlock(textBlock(t, "b1", "x")))
		require.NoError(t, pub.RemoveBlock("b1"))
		assert.Equal(t, 0, pub.BlockCount())
	})

	t.Run("unknown block", func(t *testing.T) {
		pub := publication.New("p")
		assert.ErrorIs(t, pub.RemoveBlock("b1"), publication.ErrBlockNotFound)
		_, err := pub.DetachBlock("b1")
		assert.ErrorIs(t, err, publication.ErrBlockNotFound)
	})
}

func TestUpdateBlock(t *testing.T) {
	pub, _ := weeklyDigest(t)

	require.NoError(t, pub.UpdateBlock("T1", publication.TextPayload{Text: "Updated"}))
	b, err := pub.Block("T1")
	require.NoError(t, err)
	assert.Equal(t, publication.TextPayload{Text: "Updated"}, b.Payload())

	err = pub.UpdateBlock("T1", publication.VideoPayload{Video: "v.mp4"})
	assert.ErrorIs(t, err, publication.ErrKindMismatch)

	err = pub.UpdateBlock("T1", publication.TextPayload{Text: "  "})
	assert.ErrorIs(t, err, publication.ErrInvalidPayload)

	b, err = pub.Block("T1")
	require.NoError(t, err)
	assert.Equal(t, publication.KindText, b.Kind())
	assert.Equal(t, publication.TextPayload{Text: "Updated"}, b.Payload())
}

func TestSections(t *testing.T) {
	t.Run("remove order leaves gaps until normalized", func(t *testing.T) {
		pub := publication.New("p")
		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, pub.AddBlock(textBlock(t, id, id)))
		}
		sectionID := pub.AddSection(nil)
		for i, id := range []publication.BlockID{"a", "b", "c"} {
			require.NoError(t, pub.AddSectionOrder(sectionID, id, i))
		}

		require.NoError(t, pub.RemoveSectionOrder(sectionID, "b", 1))
		assert.ErrorIs(t, pub.RemoveSectionOrder(sectionID, "b", 1), publication.ErrOrderNotFound)

		section, _ := pub.Section(sectionID)
		assert.Equal(t, []publication.BlockOrder{{BlockID: "a", Index: 0}, {BlockID: "c", Index: 2}}, section.Orders())

		require.NoError(t, pub.NormalizeSection(sectionID))
		section, _ = pub.Section(sectionID)
		assert.Equal(t, []publication.BlockOrder{{BlockID: "a", Index: 0}, {BlockID: "c", Index: 1}}, section.Orders())
	})

	t.Run("move and remove sections", func(t *testing.T) {
		pub := publication.New("p")
		first := pub.AddSection(strPtr("first"))
		second := pub.AddSection(strPtr("second"))
		third := pub.AddSection(nil)

		require.NoError(t, pub.MoveSection(third, 0))
		ids := sectionIDs(pub)
		assert.Equal(t, []publication.SectionID{third, first, second}, ids)

		assert.ErrorIs(t, pub.MoveSection(first, 3), publication.ErrInvalidPosition)
		assert.ErrorIs(t, pub.MoveSection("nope", 0), publication.ErrSectionNotFound)

		require.NoError(t, pub.RemoveSection(first))
		assert.Equal(t, []publication.SectionID{third, second}, sectionIDs(pub))
		assert.ErrorIs(t, pub.RemoveSection(first), publication.ErrSectionNotFound)
	})

	t.Run("section ids are unique", func(t *testing.T) {
		pub := publication.New("p")
		require.NoError(t, pub.AddSectionWithID("s1", nil))
		assert.ErrorIs(t, pub.AddSectionWithID("s1", nil), publication.ErrDuplicateSection)
		assert.ErrorIs(t, pub.AddSectionWithID("", nil), publication.ErrInvalidSectionID)
	})

	t.Run("attach validates references", func(t *testing.T) {
		pub := publication.New("p")
		require.NoError(t, pub.AddBlock(textBlock(t, "a", "a")))

		s := publication.NewBlockSection("", strPtr("free"))
		s.Append(publication.BlockOrder{BlockID: "a", Index: 0})
		s.Append(publication.BlockOrder{BlockID: "missing", Index: 1})

		assert.ErrorIs(t, pub.AttachSection(s), publication.ErrDanglingReference)
		assert.Equal(t, 0, pub.SectionCount())

		ok := publication.NewBlockSection("", nil)
		ok.Append(publication.BlockOrder{BlockID: "a", Index: 3})
		require.NoError(t, pub.AttachSection(ok))
		assert.Equal(t, 1, pub.SectionCount())

		assert.ErrorIs(t, pub.AttachSection(&publication.BlockSection{}), publication.ErrInvalidSectionID)
		assert.ErrorIs(t, pub.AttachSection(&publication.BlockSection{}), publication.ErrInvalidSectionID)
		assert.Equal(t, 1, pub.SectionCount())
	})

	t.Run("returned sections are copies", func(t *testing.T) {
		pub, sectionID := weeklyDigest(t)
		section, err := pub.Section(sectionID)
		require.NoError(t, err)

		section.Append(publication.BlockOrder{BlockID: "ghost", Index: 9})
		section.SetTitle(nil)

		assert.NoError(t, pub.CheckIntegrity())
		fresh, _ := pub.Section(sectionID)
		assert.Equal(t, 2, fresh.Len())
		assert.NotNil(t, fresh.Title())
	})
}

func TestUnreferencedBlocks(t *testing.T) {
	pub, _ := weeklyDigest(t)
	require.NoError(t, pub.AddBlock(textBlock(t, "spare", "unused")))

	assert.Equal(t, []publication.BlockID{"spare"}, pub.UnreferencedBlocks())
}

func TestClone(t *testing.T) {
	pub, sectionID := weeklyDigest(t)
	clone := pub.Clone()
	assert.True(t, pub.Equal(clone))

	require.NoError(t, clone.RemoveSection(sectionID))
	clone.SetTitle("Other")
	assert.False(t, pub.Equal(clone))
	assert.Equal(t, 1, pub.SectionCount())
	assert.Equal(t, "Weekly Digest", pub.Title())
}

func sectionIDs(pub *publication.Publication) []publication.SectionID {
	var ids []publication.SectionID
	for _, s := range pub.Sections() {
		ids = append(ids, s.ID())
	}
	return ids
}
