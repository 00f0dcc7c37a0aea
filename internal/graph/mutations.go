package graph

import (
	"context"
	"errors"

	"github.com/hanpama/usergraph/internal/model"
	"github.com/hanpama/usergraph/internal/store"
)

func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

func inputArg(args map[string]any) map[string]any {
	m, _ := args["dto"].(map[string]any)
	return m
}

func optional[T any](m map[string]any, name string) *T {
	v, ok := m[name].(T)
	if !ok {
		return nil
	}
	return &v
}

// deleted maps a delete outcome to the Boolean result: a missing row is
// false rather than an error.
func deleted(err error) (any, error) {
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return nil, err
	}
	return true, nil
}

func (r *Runtime) createUser(ctx context.Context, p resolveParams) (any, error) {
	dto := inputArg(p.Args)
	in := model.CreateUserInput{Name: stringArg(dto, "name")}
	if b := optional[float64](dto, "balance"); b != nil {
		in.Balance = *b
	}
	return r.store.CreateUser(ctx, r.newID(), in)
}

func (r *Runtime) changeUser(ctx context.Context, p resolveParams) (any, error) {
	id := stringArg(p.Args, "id")
	dto := inputArg(p.Args)
	u, err := r.store.UpdateUser(ctx, id, model.ChangeUserInput{
		Name:    optional[string](dto, "name"),
		Balance: optional[float64](dto, "balance"),
	})
	if err != nil {
		return nil, err
	}
	clearUsers(p, id)
	return u, nil
}

func (r *Runtime) deleteUser(ctx context.Context, p resolveParams) (any, error) {
	id := stringArg(p.Args, "id")
	clearUsers(p, id)
	return deleted(r.store.DeleteUser(ctx, id))
}

// clearUsers drops the cached rows of ids from both user loaders. Every
// mutation clears the loader entries it affects so later root fields of the
// same operation read fresh rows.
func clearUsers(p resolveParams, ids ...string) {
	for _, id := range ids {
		p.Loaders.User.Clear(id)
		p.Loaders.UserEdges.Clear(id)
	}
}

// subscribeTo returns the subscriber with its updated edges.
func (r *Runtime) subscribeTo(ctx context.Context, p resolveParams) (any, error) {
	userID, authorID := stringArg(p.Args, "userId"), stringArg(p.Args, "authorId")
	if err := r.store.Subscribe(ctx, userID, authorID); err != nil {
		return nil, err
	}
	clearUsers(p, userID, authorID)
	return loadUser(ctx, p.Loaders, userID)
}

func (r *Runtime) unsubscribeFrom(ctx context.Context, p resolveParams) (any, error) {
	userID, authorID := stringArg(p.Args, "userId"), stringArg(p.Args, "authorId")
	clearUsers(p, userID, authorID)
	return deleted(r.store.Unsubscribe(ctx, userID, authorID))
}

func (r *Runtime) createPost(ctx context.Context, p resolveParams) (any, error) {
	dto := inputArg(p.Args)
	in := model.CreatePostInput{
		Title:    stringArg(dto, "title"),
		Content:  stringArg(dto, "content"),
		AuthorID: stringArg(dto, "authorId"),
	}
	post, err := r.store.CreatePost(ctx, r.newID(), in)
	if err != nil {
		return nil, err
	}
	p.Loaders.PostsByAuthor.Clear(in.AuthorID)
	return post, nil
}

func (r *Runtime) changePost(ctx context.Context, p resolveParams) (any, error) {
	dto := inputArg(p.Args)
	post, err := r.store.UpdatePost(ctx, stringArg(p.Args, "id"), model.ChangePostInput{
		Title:   optional[string](dto, "title"),
		Content: optional[string](dto, "content"),
	})
	if err != nil {
		return nil, err
	}
	p.Loaders.PostsByAuthor.Clear(post.AuthorID)
	return post, nil
}

func (r *Runtime) deletePost(ctx context.Context, p resolveParams) (any, error) {
	id := stringArg(p.Args, "id")
	if post, err := r.store.FindPost(ctx, id); err == nil {
		p.Loaders.PostsByAuthor.Clear(post.AuthorID)
	}
	return deleted(r.store.DeletePost(ctx, id))
}

func (r *Runtime) createProfile(ctx context.Context, p resolveParams) (any, error) {
	dto := inputArg(p.Args)
	in := model.CreateProfileInput{
		UserID:       stringArg(dto, "userId"),
		MemberTypeID: model.MemberTypeID(stringArg(dto, "memberTypeId")),
	}
	if v := optional[bool](dto, "isMale"); v != nil {
		in.IsMale = *v
	}
	if v := optional[int](dto, "yearOfBirth"); v != nil {
		in.YearOfBirth = *v
	}
	profile, err := r.store.CreateProfile(ctx, r.newID(), in)
	if err != nil {
		return nil, err
	}
	p.Loaders.ProfileByUser.Clear(in.UserID)
	return profile, nil
}

func (r *Runtime) changeProfile(ctx context.Context, p resolveParams) (any, error) {
	dto := inputArg(p.Args)
	in := model.ChangeProfileInput{
		IsMale:      optional[bool](dto, "isMale"),
		YearOfBirth: optional[int](dto, "yearOfBirth"),
	}
	if s := optional[string](dto, "memberTypeId"); s != nil {
		id := model.MemberTypeID(*s)
		in.MemberTypeID = &id
	}
	profile, err := r.store.UpdateProfile(ctx, stringArg(p.Args, "id"), in)
	if err != nil {
		return nil, err
	}
	p.Loaders.ProfileByUser.Clear(profile.UserID)
	return profile, nil
}

func (r *Runtime) deleteProfile(ctx context.Context, p resolveParams) (any, error) {
	id := stringArg(p.Args, "id")
	if profile, err := r.store.FindProfile(ctx, id); err == nil {
		p.Loaders.ProfileByUser.Clear(profile.UserID)
	}
	return deleted(r.store.DeleteProfile(ctx, id))
}
