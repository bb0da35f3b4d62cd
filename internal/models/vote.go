package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/lib/pq"
)

// VoteSet is an immutable set of user ids, stored as a Postgres text[].
// Operations return a new set and never modify the receiver.
type VoteSet struct {
	ids []string
}

func NewVoteSet(ids ...string) VoteSet {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return VoteSet{ids: out}
}

func (s VoteSet) Len() int {
	return len(s.ids)
}

func (s VoteSet) Has(userID string) bool {
	return slices.Contains(s.ids, userID)
}

func (s VoteSet) With(userID string) VoteSet {
	if s.Has(userID) {
		return s
	}
	out := make([]string, 0, len(s.ids)+1)
	out = append(out, s.ids...)
	return VoteSet{ids: append(out, userID)}
}

func (s VoteSet) Without(userID string) VoteSet {
	if !s.Has(userID) {
		return s
	}
	out := make([]string, 0, len(s.ids)-1)
	for _, id := range s.ids {
		if id != userID {
			out = append(out, id)
		}
	}
	return VoteSet{ids: out}
}

// IDs returns a copy of the members in insertion order.
func (s VoteSet) IDs() []string {
	return slices.Clone(s.ids)
}

func (s VoteSet) MarshalJSON() ([]byte, error) {
	if s.ids == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.ids)
}

func (s *VoteSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewVoteSet(ids...)
	return nil
}

func (s VoteSet) Value() (driver.Value, error) {
	ids := s.ids
	if ids == nil {
		ids = []string{}
	}
	return pq.StringArray(ids).Value()
}

func (s *VoteSet) Scan(src any) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return fmt.Errorf("scan vote set: %w", err)
	}
	*s = NewVoteSet(arr...)
	return nil
}

func (VoteSet) GormDataType() string {
	return "text[]"
}

type VoteKind int

const (
	VoteLike VoteKind = iota + 1
	VoteDislike
)

type VoteAction string

const (
	ActionLike      VoteAction = "like"
	ActionUnlike    VoteAction = "unlike"
	ActionDislike   VoteAction = "dislike"
	ActionUndislike VoteAction = "undislike"
)

type VoteResult struct {
	Likes    VoteSet
	Dislikes VoteSet
	Action   VoteAction
}

// ToggleVote applies one like/dislike press by userID. Pressing the same
// button twice removes the vote; pressing the other one switches it. A user
// never ends up in both sets.
func ToggleVote(likes, dislikes VoteSet, userID string, kind VoteKind) VoteResult {
	switch kind {
	case VoteLike:
		if likes.Has(userID) {
			return VoteResult{Likes: likes.Without(userID), Dislikes: dislikes, Action: ActionUnlike}
		}
		return VoteResult{Likes: likes.With(userID), Dislikes: dislikes.Without(userID), Action: ActionLike}
	case VoteDislike:
		if dislikes.Has(userID) {
			return VoteResult{Likes: likes, Dislikes: dislikes.Without(userID), Action: ActionUndislike}
		}
		return VoteResult{Likes: likes.Without(userID), Dislikes: dislikes.With(userID), Action: ActionDislike}
	}
	return VoteResult{Likes: likes, Dislikes: dislikes}
}
