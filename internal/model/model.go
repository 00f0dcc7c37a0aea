// Package model holds the entities served by the graph and the inputs of
// its mutations.
package model

import "fmt"

// MemberTypeID identifies one of the fixed membership tiers.
type MemberTypeID string

const (
	MemberTypeBasic    MemberTypeID = "BASIC"
	MemberTypeBusiness MemberTypeID = "BUSINESS"
)

// MemberTypeIDs lists every valid MemberTypeID.
var MemberTypeIDs = []MemberTypeID{MemberTypeBasic, MemberTypeBusiness}

// ParseMemberTypeID validates s.
func ParseMemberTypeID(s string) (MemberTypeID, error) {
	for _, id := range MemberTypeIDs {
		if string(id) == s {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown member type %q", s)
}

// Subscription is one edge of the user subscription relation: SubscriberID
// follows AuthorID.
type Subscription struct {
	SubscriberID string
	AuthorID     string
}

type User struct {
	ID      string
	Name    string
	Balance float64

	// SubscribedTo holds the edges where this user is the subscriber and
	// Subscribers the edges where this user is the author. Both are only
	// meaningful when EdgesLoaded is true.
	SubscribedTo []Subscription
	Subscribers  []Subscription
	EdgesLoaded  bool
}

// AuthorIDs returns the ids of the users this user subscribes to.
func (u *User) AuthorIDs() []string {
	ids := make([]string, len(u.SubscribedTo))
	for i, s := range u.SubscribedTo {
		ids[i] = s.AuthorID
	}
	return ids
}

// SubscriberIDs returns the ids of the users subscribed to this user.
func (u *User) SubscriberIDs() []string {
	ids := make([]string, len(u.Subscribers))
	for i, s := range u.Subscribers {
		ids[i] = s.SubscriberID
	}
	return ids
}

type Post struct {
	ID       string
	Title    string
	Content  string
	AuthorID string
}

type Profile struct {
	ID           string
	IsMale       bool
	YearOfBirth  int
	UserID       string
	MemberTypeID MemberTypeID
}

type MemberType struct {
	ID                 MemberTypeID
	Discount           float64
	PostsLimitPerMonth int
}

// DefaultMemberTypes are the tiers every store is seeded with.
func DefaultMemberTypes() []*MemberType {
	return []*MemberType{
		{ID: MemberTypeBasic, Discount: 2.3, PostsLimitPerMonth: 20},
		{ID: MemberTypeBusiness, Discount: 7.7, PostsLimitPerMonth: 100},
	}
}
