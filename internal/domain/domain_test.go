package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingClamp(t *testing.T) {
	tests := []struct {
		in   Rating
		want Rating
	}{
		{-3, Again},
		{0, Again},
		{1, Again},
		{2, Hard},
		{3, Good},
		{4, Easy},
		{5, Easy},
		{99, Easy},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.in.Clamp(), "clamp(%d)", int(tc.in))
	}
}

func TestParseRating(t *testing.T) {
	t.Run("numeric form", func(t *testing.T) {
		r, err := ParseRating("3")
		require.NoError(t, err)
		assert.Equal(t, Good, r)
	})

	t.Run("name form", func(t *testing.T) {
		r, err := ParseRating("Easy")
		require.NoError(t, err)
		assert.Equal(t, Easy, r)
	})

	t.Run("out of domain", func(t *testing.T) {
		_, err := ParseRating("7")
		assert.ErrorIs(t, err, ErrInvalidRating)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseRating("meh")
		assert.ErrorIs(t, err, ErrInvalidRating)
	})
}

func TestParseStateFallsBackToNew(t *testing.T) {
	assert.Equal(t, StateRelearning, ParseState("3"))
	assert.Equal(t, StateReview, ParseState("Review"))
	assert.Equal(t, StateNew, ParseState("17"))
	assert.Equal(t, StateNew, ParseState("bogus"))
	assert.Equal(t, StateNew, ParseState(""))
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" math ", "", "go", "math", "  "})
	assert.Equal(t, []string{"math", "go"}, got)
}

func TestSplitJoinTags(t *testing.T) {
	assert.Equal(t, "math,go", JoinTags([]string{" math", "go ", "math"}))
	assert.Equal(t, []string{"a", "b"}, SplitTags("a, b,,"))
	assert.Nil(t, SplitTags(""))
}

func TestTagsIntersect(t *testing.T) {
	assert.True(t, TagsIntersect([]string{"math", "go"}, []string{"go"}))
	assert.False(t, TagsIntersect([]string{"math"}, []string{"physics"}))
	assert.False(t, TagsIntersect(nil, []string{"math"}))
	assert.False(t, TagsIntersect([]string{"math"}, nil))
}

func TestCardClone(t *testing.T) {
	last := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	c := Card{ID: "abc", LastReview: &last, Tags: []string{"math"}}

	cp := c.Clone()
	*cp.LastReview = cp.LastReview.Add(time.Hour)
	cp.Tags[0] = "changed"

	assert.Equal(t, last, *c.LastReview, "clone must not share the last review pointer")
	assert.Equal(t, "math", c.Tags[0], "clone must not share the tag slice")
}

func TestCardIsDue(t *testing.T) {
	now := time.Now().UTC()
	assert.True(t, Card{Due: now}.IsDue(now))
	assert.True(t, Card{Due: now.Add(-time.Minute)}.IsDue(now))
	assert.False(t, Card{Due: now.Add(time.Minute)}.IsDue(now))
}
