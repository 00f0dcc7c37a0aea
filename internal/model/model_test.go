package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseMemberTypeID(t *testing.T) {
	id, err := ParseMemberTypeID("BUSINESS")
	require.NoError(t, err)
	require.Equal(t, MemberTypeBusiness, id)

	_, err = ParseMemberTypeID("basic")
	require.Error(t, err)
}

func TestUserEdgeIDs(t *testing.T) {
	u := &User{
		ID:           "a",
		SubscribedTo: []Subscription{{SubscriberID: "a", AuthorID: "b"}, {SubscriberID: "a", AuthorID: "a"}},
		Subscribers:  []Subscription{{SubscriberID: "c", AuthorID: "a"}},
	}
	if diff := cmp.Diff([]string{"b", "a"}, u.AuthorIDs()); diff != "" {
		t.Fatalf("AuthorIDs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c"}, u.SubscriberIDs()); diff != "" {
		t.Fatalf("SubscriberIDs mismatch (-want +got):\n%s", diff)
	}
}

func TestChangeInputsApplyOnlySetFields(t *testing.T) {
	name := "new"
	u := &User{ID: "1", Name: "old", Balance: 3}
	ChangeUserInput{Name: &name}.Apply(u)
	require.Equal(t, &User{ID: "1", Name: "new", Balance: 3}, u)

	business := MemberTypeBusiness
	p := &Profile{ID: "p", YearOfBirth: 1990, MemberTypeID: MemberTypeBasic}
	ChangeProfileInput{MemberTypeID: &business}.Apply(p)
	require.Equal(t, &Profile{ID: "p", YearOfBirth: 1990, MemberTypeID: MemberTypeBusiness}, p)
}
