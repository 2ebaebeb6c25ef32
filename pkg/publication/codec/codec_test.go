package codec_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-publication/pkg/publication"
	"github.com/tendant/simple-publication/pkg/publication/codec"
)

func samplePublication(t *testing.T) *publication.Publication {
	t.Helper()
	pub := publication.New("Release Notes")
	require.NoError(t, pub.AddBlock(publication.MustBlock("t1", publication.TextPayload{Text: "Version 2 is out"})))
	require.NoError(t, pub.AddBlock(publication.MustBlock("tab", publication.TablePayload{
		Rows: 2, Columns: 2, Data: [][]string{{"Feature", "Status"}, {"Search", "done"}}, HasColumnHeader: true,
	})))
	require.NoError(t, pub.AddBlock(publication.MustBlock("aud", publication.AudioPayload{Audio: "blob:42", Title: "Changelog", SourceType: publication.SourceTypeBlob},
		publication.WithAccessCriteria(map[string]interface{}{"tier": "gold", "level": 2, "regions": []string{"eu"}}))))

	title := "Highlights"
	sid := pub.AddSection(&title)
	require.NoError(t, pub.AddSectionOrder(sid, "t1", 0))
	require.NoError(t, pub.AddSectionOrder(sid, "tab", 1))
	sid = pub.AddSection(nil)
	require.NoError(t, pub.AddSectionOrder(sid, "aud", 0))
	require.NoError(t, pub.AddSectionOrder(sid, "t1", 3))
	return pub
}

func TestRoundTrip(t *testing.T) {
	pub := samplePublication(t)

	for _, format := range []codec.Format{codec.FormatJSON, codec.FormatCBOR} {
		for _, layout := range []codec.Layout{codec.LayoutKinds, codec.LayoutTagged} {
			for _, compress := range []bool{false, true} {
				opts := codec.Options{Format: format, Layout: layout, Compress: compress}
				name := string(format) + "/" + string(layout)
				if compress {
					name += "/zstd"
				}
				t.Run(name, func(t *testing.T) {
					var buf bytes.Buffer
					require.NoError(t, codec.Encode(&buf, pub, opts))

					decoded, info, err := codec.Decode(&buf)
					require.NoError(t, err)
					assert.True(t, pub.Equal(decoded))
					block, err := decoded.Block("aud")
					require.NoError(t, err)
					assert.Equal(t, float64(2), block.AccessCriteria()["level"])
					assert.Equal(t, codec.Info{Format: format, Layout: layout, Compressed: compress}, info)
				})
			}
		}
	}
}

func TestEncodeDefaults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, samplePublication(t), codec.Options{}))
	assert.True(t, strings.HasPrefix(buf.String(), `{"title":"Release Notes"`))
	assert.Contains(t, buf.String(), `"tableBlocks":[{"blockId":"tab","type":"table"`)

	buf.Reset()
	require.NoError(t, codec.Encode(&buf, samplePublication(t), codec.Options{Indent: true}))
	assert.Contains(t, buf.String(), "\n  \"sections\"")
}

func TestCompressionShrinksRepetitiveDocuments(t *testing.T) {
	pub := publication.New("Long")
	sid := pub.AddSection(nil)
	for i := 0; i < 200; i++ {
		b := publication.MustBlock(publication.NewBlockID(), publication.TextPayload{Text: strings.Repeat("lorem ipsum ", 20)})
		require.NoError(t, pub.AddBlock(b))
		_, err := pub.AppendSectionOrder(sid, b.ID())
		require.NoError(t, err)
	}

	var plain, packed bytes.Buffer
	require.NoError(t, codec.Encode(&plain, pub, codec.Options{}))
	require.NoError(t, codec.Encode(&packed, pub, codec.Options{Compress: true}))
	assert.Less(t, packed.Len(), plain.Len()/4)
}

func TestDecodeErrors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, _, err := codec.Decode(strings.NewReader("  \n"))
		assert.ErrorIs(t, err, codec.ErrEmptyDocument)
	})

	t.Run("mixed layouts", func(t *testing.T) {
		body := `{"title":"x",
			"blocks":[{"blockId":"a","type":"text","content":{"text":"a"}}],
			"textBlocks":[{"blockId":"b","type":"text","content":{"text":"b"}}]}`
		_, _, err := codec.Decode(strings.NewReader(body))
		assert.ErrorIs(t, err, codec.ErrUnknownLayout)
	})

	t.Run("tagged with unknown kind", func(t *testing.T) {
		body := `{"title":"x","blocks":[{"blockId":"a","type":"poll","content":{}}]}`
		_, _, err := codec.Decode(strings.NewReader(body))
		assert.ErrorIs(t, err, publication.ErrUnknownKind)
	})

	t.Run("dangling reference", func(t *testing.T) {
		body := `{"title":"x","sections":[{"title":"s","orders":[{"blockId":"nope","index":0}]}]}`
		_, _, err := codec.Decode(strings.NewReader(body))
		assert.ErrorIs(t, err, publication.ErrDanglingReference)
	})

	t.Run("decompressed size is capped", func(t *testing.T) {
		pub := publication.New(strings.Repeat("x", 1<<20))
		var buf bytes.Buffer
		require.NoError(t, codec.Encode(&buf, pub, codec.Options{Compress: true}))
		packed := buf.Bytes()

		_, _, err := codec.DecodeBytes(packed, codec.WithMaxDecodedSize(64<<10))
		assert.Error(t, err)

		decoded, info, err := codec.DecodeBytes(packed)
		require.NoError(t, err)
		assert.True(t, info.Compressed)
		assert.Equal(t, pub.Title(), decoded.Title())
	})

	t.Run("garbage", func(t *testing.T) {
		_, _, err := codec.Decode(strings.NewReader("\xff\x00garbage"))
		assert.Error(t, err)
	})
}

func TestParse(t *testing.T) {
	f, err := codec.ParseFormat(" CBOR ")
	require.NoError(t, err)
	assert.Equal(t, codec.FormatCBOR, f)

	_, err = codec.ParseFormat("xml")
	assert.ErrorIs(t, err, codec.ErrUnknownFormat)

	l, err := codec.ParseLayout("tagged")
	require.NoError(t, err)
	assert.Equal(t, codec.LayoutTagged, l)

	_, err = codec.ParseLayout("columns")
	assert.ErrorIs(t, err, codec.ErrUnknownLayout)

	var buf bytes.Buffer
	err = codec.Encode(&buf, publication.New("x"), codec.Options{Format: "yaml"})
	assert.ErrorIs(t, err, codec.ErrUnknownFormat)
}
