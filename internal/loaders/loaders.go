// Package loaders builds the per-request set of batch loaders the graph
// resolvers read relations through.
package loaders

import (
	"context"
	"fmt"

	"github.com/hanpama/usergraph/internal/dataloader"
	"github.com/hanpama/usergraph/internal/model"
	"github.com/hanpama/usergraph/internal/store"
)

// Registry holds one loader per relation. It belongs to a single request.
type Registry struct {
	Scheduler *dataloader.Scheduler

	// User rows fetched by the loader carry both subscription edge lists.
	// Rows primed from a list query may not; UserEdges serves those.
	User          *dataloader.Loader[string, *model.User]
	UserEdges     *dataloader.Loader[string, *model.User]
	PostsByAuthor *dataloader.Loader[string, []*model.Post]
	ProfileByUser *dataloader.Loader[string, *model.Profile]
	MemberType    *dataloader.Loader[model.MemberTypeID, *model.MemberType]
}

type Options struct {
	// MaxBatch caps the keys per fetch. Zero means unlimited.
	MaxBatch int
	// MaxConcurrentFetches bounds the fetches dispatched together at the end
	// of a turn. Zero means unlimited.
	MaxConcurrentFetches int
}

// New returns a registry with a fresh scheduler and empty caches.
func New(s store.Store, opts Options) *Registry {
	sched := dataloader.NewScheduler(dataloader.WithFetchConcurrency(opts.MaxConcurrentFetches))
	lopts := []dataloader.Option{dataloader.WithMaxBatch(opts.MaxBatch)}

	return &Registry{
		Scheduler: sched,
		User:      dataloader.New(sched, "user", fetchUsers(s), lopts...),
		UserEdges: dataloader.New(sched, "user_edges", fetchUsers(s), lopts...),

		PostsByAuthor: dataloader.New(sched, "posts_by_author", func(ctx context.Context, authorIDs []string) (map[string][]*model.Post, error) {
			rows, err := s.FindPostsByAuthors(ctx, authorIDs)
			if err != nil {
				return nil, fmt.Errorf("load posts by author: %w", err)
			}
			out := make(map[string][]*model.Post)
			for _, p := range rows {
				out[p.AuthorID] = append(out[p.AuthorID], p)
			}
			return out, nil
		}, lopts...),

		ProfileByUser: dataloader.New(sched, "profile_by_user", func(ctx context.Context, userIDs []string) (map[string]*model.Profile, error) {
			rows, err := s.FindProfilesByUsers(ctx, userIDs)
			if err != nil {
				return nil, fmt.Errorf("load profiles by user: %w", err)
			}
			out := make(map[string]*model.Profile, len(rows))
			for _, p := range rows {
				out[p.UserID] = p
			}
			return out, nil
		}, lopts...),

		MemberType: dataloader.New(sched, "member_type", func(ctx context.Context, ids []model.MemberTypeID) (map[model.MemberTypeID]*model.MemberType, error) {
			rows, err := s.FindMemberTypes(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("load member types: %w", err)
			}
			out := make(map[model.MemberTypeID]*model.MemberType, len(rows))
			for _, mt := range rows {
				out[mt.ID] = mt
			}
			return out, nil
		}, lopts...),
	}
}

func fetchUsers(s store.Store) dataloader.FetchFunc[string, *model.User] {
	return func(ctx context.Context, ids []string) (map[string]*model.User, error) {
		rows, err := s.FindUsers(ctx, ids, store.IncludeEdges)
		if err != nil {
			return nil, fmt.Errorf("load users: %w", err)
		}
		out := make(map[string]*model.User, len(rows))
		for _, u := range rows {
			out[u.ID] = u
		}
		return out, nil
	}
}

// PrimeUsers seeds the user loader with rows fetched elsewhere. Rows
// without edges (EdgesLoaded false) are primed as they are; callers only do
// that when nothing in the request reads the edges.
func (r *Registry) PrimeUsers(users []*model.User) {
	for _, u := range users {
		r.User.Prime(u.ID, u)
	}
}

type ctxKey struct{}

// WithRegistry returns a context carrying r.
func WithRegistry(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, ctxKey{}, r)
}

// FromContext returns the registry installed by WithRegistry, or nil.
func FromContext(ctx context.Context) *Registry {
	r, _ := ctx.Value(ctxKey{}).(*Registry)
	return r
}
