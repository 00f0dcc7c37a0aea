// Package store defines the storage contract the loaders and mutations are
// written against. Batch lookups never fail for missing keys; single-row
// lookups report a missing row with ErrNotFound.
package store

import (
	"context"
	"errors"

	"github.com/hanpama/usergraph/internal/model"
)

// ErrNotFound is returned (wrapped) when a single-row lookup or write finds
// no row.
var ErrNotFound = errors.New("not found")

// Include selects which relations are loaded with user rows.
type Include int

const (
	// IncludeNone loads the user columns only. Rows have EdgesLoaded false.
	IncludeNone Include = iota
	// IncludeEdges also loads both subscription edge lists.
	IncludeEdges
)

func (i Include) String() string {
	if i == IncludeEdges {
		return "edges"
	}
	return "none"
}

type UserStore interface {
	ListUsers(ctx context.Context, include Include) ([]*model.User, error)
	FindUsers(ctx context.Context, ids []string, include Include) ([]*model.User, error)
	FindUser(ctx context.Context, id string) (*model.User, error)
	CreateUser(ctx context.Context, id string, in model.CreateUserInput) (*model.User, error)
	UpdateUser(ctx context.Context, id string, in model.ChangeUserInput) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
	// Subscribe records that subscriberID follows authorID. Subscribing twice
	// is not an error.
	Subscribe(ctx context.Context, subscriberID, authorID string) error
	Unsubscribe(ctx context.Context, subscriberID, authorID string) error
}

type PostStore interface {
	ListPosts(ctx context.Context) ([]*model.Post, error)
	FindPostsByAuthors(ctx context.Context, authorIDs []string) ([]*model.Post, error)
	FindPost(ctx context.Context, id string) (*model.Post, error)
	CreatePost(ctx context.Context, id string, in model.CreatePostInput) (*model.Post, error)
	UpdatePost(ctx context.Context, id string, in model.ChangePostInput) (*model.Post, error)
	DeletePost(ctx context.Context, id string) error
}

type ProfileStore interface {
	ListProfiles(ctx context.Context) ([]*model.Profile, error)
	FindProfilesByUsers(ctx context.Context, userIDs []string) ([]*model.Profile, error)
	FindProfile(ctx context.Context, id string) (*model.Profile, error)
	CreateProfile(ctx context.Context, id string, in model.CreateProfileInput) (*model.Profile, error)
	UpdateProfile(ctx context.Context, id string, in model.ChangeProfileInput) (*model.Profile, error)
	DeleteProfile(ctx context.Context, id string) error
}

type MemberTypeStore interface {
	ListMemberTypes(ctx context.Context) ([]*model.MemberType, error)
	FindMemberTypes(ctx context.Context, ids []model.MemberTypeID) ([]*model.MemberType, error)
	FindMemberType(ctx context.Context, id model.MemberTypeID) (*model.MemberType, error)
}

// Store is the full storage surface.
type Store interface {
	UserStore
	PostStore
	ProfileStore
	MemberTypeStore
}
