package memory

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/hanpama/usergraph/internal/model"
	"github.com/hanpama/usergraph/internal/store"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s := New()
	for _, id := range []string{"a", "b", "c"} {
		_, err := s.CreateUser(ctx, id, model.CreateUserInput{Name: "user " + id, Balance: 1})
		require.NoError(t, err)
	}
	require.NoError(t, s.Subscribe(ctx, "a", "b"))
	require.NoError(t, s.Subscribe(ctx, "c", "b"))
	require.NoError(t, s.Subscribe(ctx, "b", "a"))
	return s
}

func TestStore_UserEdges(t *testing.T) {
	ctx := context.Background()
	s := seed(t)

	got, err := s.FindUsers(ctx, []string{"b", "missing", "b"}, store.IncludeEdges)
	require.NoError(t, err)
	want := []*model.User{{
		ID: "b", Name: "user b", Balance: 1, EdgesLoaded: true,
		SubscribedTo: []model.Subscription{{SubscriberID: "b", AuthorID: "a"}},
		Subscribers: []model.Subscription{
			{SubscriberID: "a", AuthorID: "b"},
			{SubscriberID: "c", AuthorID: "b"},
		},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("FindUsers mismatch (-want +got):\n%s", diff)
	}

	plain, err := s.ListUsers(ctx, store.IncludeNone)
	require.NoError(t, err)
	require.Len(t, plain, 3)
	for _, u := range plain {
		require.False(t, u.EdgesLoaded)
		require.Nil(t, u.SubscribedTo)
	}
}

func TestStore_SubscribeIsIdempotentAndUnsubscribeReportsMissing(t *testing.T) {
	ctx := context.Background()
	s := seed(t)

	require.NoError(t, s.Subscribe(ctx, "a", "b"))
	require.NoError(t, s.Subscribe(ctx, "a", "a"))
	u, err := s.FindUsers(ctx, []string{"a"}, store.IncludeEdges)
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, u[0].AuthorIDs())

	require.NoError(t, s.Unsubscribe(ctx, "a", "b"))
	require.ErrorIs(t, s.Unsubscribe(ctx, "a", "b"), store.ErrNotFound)
	require.ErrorIs(t, s.Subscribe(ctx, "a", "nobody"), store.ErrNotFound)
}

func TestStore_DeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	_, err := s.CreatePost(ctx, "p1", model.CreatePostInput{Title: "t", Content: "c", AuthorID: "b"})
	require.NoError(t, err)
	_, err = s.CreatePost(ctx, "p2", model.CreatePostInput{Title: "t", Content: "c", AuthorID: "a"})
	require.NoError(t, err)
	_, err = s.CreateProfile(ctx, "pr", model.CreateProfileInput{UserID: "b", MemberTypeID: model.MemberTypeBasic})
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, "b"))
	require.ErrorIs(t, s.DeleteUser(ctx, "b"), store.ErrNotFound)

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "p2", posts[0].ID)

	_, err = s.FindProfile(ctx, "pr")
	require.ErrorIs(t, err, store.ErrNotFound)

	users, err := s.FindUsers(ctx, []string{"a"}, store.IncludeEdges)
	require.NoError(t, err)
	require.Empty(t, users[0].SubscribedTo)
	require.Empty(t, users[0].Subscribers)
}

func TestStore_PostsByAuthors(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	for _, p := range []struct{ id, author string }{{"p1", "a"}, {"p2", "b"}, {"p3", "a"}} {
		_, err := s.CreatePost(ctx, p.id, model.CreatePostInput{Title: p.id, AuthorID: p.author})
		require.NoError(t, err)
	}

	got, err := s.FindPostsByAuthors(ctx, []string{"a", "c"})
	require.NoError(t, err)
	want := []*model.Post{
		{ID: "p1", Title: "p1", AuthorID: "a"},
		{ID: "p3", Title: "p3", AuthorID: "a"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("FindPostsByAuthors mismatch (-want +got):\n%s", diff)
	}

	_, err = s.CreatePost(ctx, "px", model.CreatePostInput{AuthorID: "nobody"})
	require.ErrorIs(t, err, store.ErrNotFound)

	title := "changed"
	p, err := s.UpdatePost(ctx, "p2", model.ChangePostInput{Title: &title})
	require.NoError(t, err)
	require.Equal(t, &model.Post{ID: "p2", Title: "changed", AuthorID: "b"}, p)
}

func TestStore_Profiles(t *testing.T) {
	ctx := context.Background()
	s := seed(t)

	_, err := s.CreateProfile(ctx, "p1", model.CreateProfileInput{YearOfBirth: 1990, UserID: "a", MemberTypeID: model.MemberTypeBasic})
	require.NoError(t, err)
	_, err = s.CreateProfile(ctx, "p2", model.CreateProfileInput{UserID: "a", MemberTypeID: model.MemberTypeBasic})
	require.Error(t, err)
	_, err = s.CreateProfile(ctx, "p3", model.CreateProfileInput{UserID: "b", MemberTypeID: "GOLD"})
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.FindProfilesByUsers(ctx, []string{"a", "b"})
	require.NoError(t, err)
	want := []*model.Profile{{ID: "p1", YearOfBirth: 1990, UserID: "a", MemberTypeID: model.MemberTypeBasic}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("FindProfilesByUsers mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_MemberTypesSeeded(t *testing.T) {
	ctx := context.Background()
	s := New()

	all, err := s.ListMemberTypes(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(model.DefaultMemberTypes(), all); diff != "" {
		t.Fatalf("ListMemberTypes mismatch (-want +got):\n%s", diff)
	}

	got, err := s.FindMemberTypes(ctx, []model.MemberTypeID{model.MemberTypeBusiness, "GOLD"})
	require.NoError(t, err)
	want := []*model.MemberType{{ID: model.MemberTypeBusiness, Discount: 7.7, PostsLimitPerMonth: 100}}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("FindMemberTypes mismatch (-want +got):\n%s", diff)
	}

	_, err = s.FindMemberType(ctx, "GOLD")
	require.ErrorIs(t, err, store.ErrNotFound)
}
