package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteSetIsImmutable(t *testing.T) {
	base := NewVoteSet("a", "b")

	added := base.With("c")
	removed := base.Without("a")

	assert.Equal(t, []string{"a", "b"}, base.IDs())
	assert.Equal(t, []string{"a", "b", "c"}, added.IDs())
	assert.Equal(t, []string{"b"}, removed.IDs())
}

func TestNewVoteSetDropsDuplicates(t *testing.T) {
	set := NewVoteSet("a", "a", "", "b")
	assert.Equal(t, 2, set.Len())
}

func TestToggleLikeTwiceRestoresState(t *testing.T) {
	likes, dislikes := NewVoteSet(), NewVoteSet()

	first := ToggleVote(likes, dislikes, "u1", VoteLike)
	assert.Equal(t, ActionLike, first.Action)
	assert.True(t, first.Likes.Has("u1"))

	second := ToggleVote(first.Likes, first.Dislikes, "u1", VoteLike)
	assert.Equal(t, ActionUnlike, second.Action)
	assert.Equal(t, 0, second.Likes.Len())
	assert.Equal(t, 0, second.Dislikes.Len())
}

func TestToggleSwitchesBetweenSets(t *testing.T) {
	liked := ToggleVote(NewVoteSet(), NewVoteSet(), "u1", VoteLike)

	disliked := ToggleVote(liked.Likes, liked.Dislikes, "u1", VoteDislike)
	assert.Equal(t, ActionDislike, disliked.Action)
	assert.False(t, disliked.Likes.Has("u1"))
	assert.True(t, disliked.Dislikes.Has("u1"))

	undisliked := ToggleVote(disliked.Likes, disliked.Dislikes, "u1", VoteDislike)
	assert.Equal(t, ActionUndislike, undisliked.Action)
	assert.Equal(t, 0, undisliked.Dislikes.Len())
}

func TestToggleNeverLeavesUserInBothSets(t *testing.T) {
	users := []string{"u1", "u2", "u3"}
	likes, dislikes := NewVoteSet(), NewVoteSet()

	presses := []VoteKind{VoteLike, VoteDislike, VoteDislike, VoteLike, VoteLike, VoteDislike, VoteLike}
	for i, kind := range presses {
		for _, user := range users[:1+i%len(users)] {
			res := ToggleVote(likes, dislikes, user, kind)
			likes, dislikes = res.Likes, res.Dislikes
			for _, u := range users {
				require.False(t, likes.Has(u) && dislikes.Has(u), "user %s in both sets after press %d", u, i)
			}
		}
	}
}

func TestToggleLeavesOtherVotersAlone(t *testing.T) {
	res := ToggleVote(NewVoteSet("u2"), NewVoteSet("u3"), "u1", VoteDislike)
	assert.Equal(t, []string{"u2"}, res.Likes.IDs())
	assert.Equal(t, []string{"u3", "u1"}, res.Dislikes.IDs())
}

func TestVoteSetJSON(t *testing.T) {
	raw, err := json.Marshal(VoteSet{})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))

	var set VoteSet
	require.NoError(t, json.Unmarshal([]byte(`["x","y","x"]`), &set))
	assert.Equal(t, []string{"x", "y"}, set.IDs())
}

func TestVoteSetSQLRoundTrip(t *testing.T) {
	value, err := NewVoteSet("a", "b").Value()
	require.NoError(t, err)
	assert.Equal(t, `{"a","b"}`, value)

	empty, err := VoteSet{}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{}`, empty)

	var scanned VoteSet
	require.NoError(t, scanned.Scan([]byte(`{a,b}`)))
	assert.Equal(t, []string{"a", "b"}, scanned.IDs())
}

func TestCommentViewCounts(t *testing.T) {
	c := &Comment{ID: "c1", AuthorID: "u1", Likes: NewVoteSet("u2", "u3"), Dislikes: NewVoteSet("u4")}
	view := c.View()
	assert.Equal(t, 2, view.LikesCount)
	assert.Equal(t, 1, view.DislikesCount)
	assert.Equal(t, "u1", view.Author.ID)
}
