package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSquash(t *testing.T) {
	assert.Equal(t, "a b c", Squash("  a \n\t b   c\r\n"))
	assert.Equal(t, "", Squash(" \n "))
}

func TestSplitCompositeID(t *testing.T) {
	id := SplitCompositeID("https://www.bqxs520.com/book/12_345_6789.shtml")
	require.NotNil(t, id.BookID)
	assert.Equal(t, "12", *id.ID1)
	assert.Equal(t, "345", *id.ID2)
	assert.Equal(t, "6789", *id.ID3)
	assert.Equal(t, "12_345_6789", *id.BookID)

	missing := SplitCompositeID("/author/12.shtml")
	assert.Nil(t, missing.ID1)
	assert.Nil(t, missing.ID2)
	assert.Nil(t, missing.ID3)
	assert.Nil(t, missing.BookID)
}

func TestParseBookID(t *testing.T) {
	id, ok := ParseBookID("1_2_3")
	require.True(t, ok)
	assert.Equal(t, "1_2_3", *id.BookID)

	for _, bad := range []string{"", "1_2", "a_b_c", "1_2_3_4", "../1_2_3"} {
		_, ok := ParseBookID(bad)
		assert.False(t, ok, bad)
	}
}

func TestJoinDescription(t *testing.T) {
	assert.Equal(t, "", JoinDescription("", ""))
	assert.Equal(t, "a\nb", JoinDescription("a", "b"))
	assert.Equal(t, "a\n", JoinDescription("a", ""))
}

func TestJoinTagsIdempotent(t *testing.T) {
	cases := [][]string{
		nil,
		{"fantasy"},
		{" fantasy ", "", "romance"},
		{"a, b", "c"},
	}
	for _, tags := range cases {
		joined := JoinTags(tags)
		assert.Equal(t, joined, JoinTags(SplitTags(joined)), "%q", tags)
	}
	assert.Equal(t, "fantasy, romance", JoinTags([]string{" fantasy ", "", "romance"}))
}
