package graph

import (
	"context"
	"errors"

	"github.com/hanpama/usergraph/internal/loaders"
	"github.com/hanpama/usergraph/internal/model"
	"github.com/hanpama/usergraph/internal/store"
)

func (r *Runtime) userPosts(ctx context.Context, p resolveParams) (any, error) {
	u := p.Source.(*model.User)
	posts, found, err := p.Loaders.PostsByAuthor.Load(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if !found {
		return []*model.Post{}, nil
	}
	return posts, nil
}

func (r *Runtime) userProfile(ctx context.Context, p resolveParams) (any, error) {
	u := p.Source.(*model.User)
	profile, found, err := p.Loaders.ProfileByUser.Load(ctx, u.ID)
	if err != nil || !found {
		return nil, err
	}
	return profile, nil
}

// withEdges returns u if its edges are loaded, and otherwise the same user
// fetched with edges.
func withEdges(ctx context.Context, reg *loaders.Registry, u *model.User) (*model.User, error) {
	if u.EdgesLoaded {
		return u, nil
	}
	full, found, err := reg.UserEdges.Load(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if !found {
		return &model.User{ID: u.ID, EdgesLoaded: true}, nil
	}
	return full, nil
}

// loadUsers loads ids in order. Users that no longer exist stay in position
// as null.
func loadUsers(ctx context.Context, reg *loaders.Registry, ids []string) (any, error) {
	if len(ids) == 0 {
		return []any{}, nil
	}
	results := reg.User.LoadMany(ctx, ids)
	out := make([]any, len(results))
	for i, res := range results {
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Found {
			out[i] = res.Value
		}
	}
	return out, nil
}

func (r *Runtime) userSubscribedTo(ctx context.Context, p resolveParams) (any, error) {
	u, err := withEdges(ctx, p.Loaders, p.Source.(*model.User))
	if err != nil {
		return nil, err
	}
	return loadUsers(ctx, p.Loaders, u.AuthorIDs())
}

func (r *Runtime) subscribedToUser(ctx context.Context, p resolveParams) (any, error) {
	u, err := withEdges(ctx, p.Loaders, p.Source.(*model.User))
	if err != nil {
		return nil, err
	}
	return loadUsers(ctx, p.Loaders, u.SubscriberIDs())
}

func loadUser(ctx context.Context, reg *loaders.Registry, id string) (any, error) {
	u, found, err := reg.User.Load(ctx, id)
	if err != nil || !found {
		return nil, err
	}
	return u, nil
}

func (r *Runtime) postAuthor(ctx context.Context, p resolveParams) (any, error) {
	return loadUser(ctx, p.Loaders, p.Source.(*model.Post).AuthorID)
}

func (r *Runtime) profileUser(ctx context.Context, p resolveParams) (any, error) {
	return loadUser(ctx, p.Loaders, p.Source.(*model.Profile).UserID)
}

func (r *Runtime) profileMemberType(ctx context.Context, p resolveParams) (any, error) {
	mt, found, err := p.Loaders.MemberType.Load(ctx, p.Source.(*model.Profile).MemberTypeID)
	if err != nil || !found {
		return nil, err
	}
	return mt, nil
}

func (r *Runtime) queryUser(ctx context.Context, p resolveParams) (any, error) {
	return loadUser(ctx, p.Loaders, stringArg(p.Args, "id"))
}

func (r *Runtime) queryPosts(ctx context.Context, p resolveParams) (any, error) {
	return r.store.ListPosts(ctx)
}

// nullIfMissing turns store.ErrNotFound into a null result.
func nullIfMissing(v any, err error) (any, error) {
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *Runtime) queryPost(ctx context.Context, p resolveParams) (any, error) {
	return nullIfMissing(r.store.FindPost(ctx, stringArg(p.Args, "id")))
}

func (r *Runtime) queryProfiles(ctx context.Context, p resolveParams) (any, error) {
	return r.store.ListProfiles(ctx)
}

func (r *Runtime) queryProfile(ctx context.Context, p resolveParams) (any, error) {
	return nullIfMissing(r.store.FindProfile(ctx, stringArg(p.Args, "id")))
}

func (r *Runtime) queryMemberTypes(ctx context.Context, p resolveParams) (any, error) {
	return r.store.ListMemberTypes(ctx)
}

func (r *Runtime) queryMemberType(ctx context.Context, p resolveParams) (any, error) {
	mt, found, err := p.Loaders.MemberType.Load(ctx, model.MemberTypeID(stringArg(p.Args, "id")))
	if err != nil || !found {
		return nil, err
	}
	return mt, nil
}
