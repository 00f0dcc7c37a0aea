// Package graph serves the user graph schema on top of the executor. Owned
// fields are read straight off the model structs; relations go through the
// request's loader registry so sibling lookups of one depth share a fetch.
package graph

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	"github.com/hanpama/usergraph/internal/executor"
	"github.com/hanpama/usergraph/internal/loaders"
	"github.com/hanpama/usergraph/internal/model"
	"github.com/hanpama/usergraph/internal/schema"
	"github.com/hanpama/usergraph/internal/store"
	"go.uber.org/zap"
)

//go:embed schema.graphql
var SDL string

// Schema builds the executable schema from the embedded SDL.
func Schema() (*schema.Schema, error) {
	s, err := schema.BuildFromSDL(SDL)
	if err != nil {
		return nil, fmt.Errorf("build graph schema: %w", err)
	}
	return s, nil
}

type resolveParams struct {
	Source  any
	Args    map[string]any
	Info    *executor.ResolveInfo
	Loaders *loaders.Registry
}

type resolveFunc func(ctx context.Context, p resolveParams) (any, error)

// Runtime implements executor.Runtime for the user graph.
type Runtime struct {
	store      store.Store
	loaderOpts loaders.Options
	logger     *zap.Logger
	newID      func() string

	async map[string]resolveFunc
}

var (
	_ executor.Runtime       = (*Runtime)(nil)
	_ executor.RequestScoper = (*Runtime)(nil)
	_ executor.LeafParser    = (*Runtime)(nil)
)

type Option func(*Runtime)

func WithLoaderOptions(o loaders.Options) Option { return func(r *Runtime) { r.loaderOpts = o } }
func WithLogger(l *zap.Logger) Option           { return func(r *Runtime) { r.logger = l } }

// WithIDGenerator replaces uuid.NewString for created rows.
func WithIDGenerator(f func() string) Option { return func(r *Runtime) { r.newID = f } }

func NewRuntime(s store.Store, opts ...Option) *Runtime {
	r := &Runtime{
		store:  s,
		logger: zap.NewNop(),
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(r)
	}
	r.async = map[string]resolveFunc{
		"User.posts":            r.userPosts,
		"User.profile":          r.userProfile,
		"User.userSubscribedTo": r.userSubscribedTo,
		"User.subscribedToUser": r.subscribedToUser,
		"Post.author":           r.postAuthor,
		"Profile.user":          r.profileUser,
		"Profile.memberType":    r.profileMemberType,

		"Query.users":       r.queryUsers,
		"Query.user":        r.queryUser,
		"Query.posts":       r.queryPosts,
		"Query.post":        r.queryPost,
		"Query.profiles":    r.queryProfiles,
		"Query.profile":     r.queryProfile,
		"Query.memberTypes": r.queryMemberTypes,
		"Query.memberType":  r.queryMemberType,

		"Mutation.createUser":      r.createUser,
		"Mutation.changeUser":      r.changeUser,
		"Mutation.deleteUser":      r.deleteUser,
		"Mutation.subscribeTo":     r.subscribeTo,
		"Mutation.unsubscribeFrom": r.unsubscribeFrom,
		"Mutation.createPost":      r.createPost,
		"Mutation.changePost":      r.changePost,
		"Mutation.deletePost":      r.deletePost,
		"Mutation.createProfile":   r.createProfile,
		"Mutation.changeProfile":   r.changeProfile,
		"Mutation.deleteProfile":   r.deleteProfile,
	}
	return r
}

// BeginRequest installs a fresh loader registry for one operation.
func (r *Runtime) BeginRequest(ctx context.Context) context.Context {
	return loaders.WithRegistry(ctx, loaders.New(r.store, r.loaderOpts))
}

// BatchResolveAsync runs every task of a depth as a tracked goroutine of the
// request's scheduler, so their loads are dispatched together.
func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	reg := loaders.FromContext(ctx)
	if reg == nil {
		ctx = r.BeginRequest(ctx)
		reg = loaders.FromContext(ctx)
	}
	results := make([]executor.AsyncResolveResult, len(tasks))
	fns := make([]func(context.Context), len(tasks))
	for i, t := range tasks {
		fns[i] = func(ctx context.Context) {
			v, err := r.resolveAsync(ctx, reg, t)
			results[i] = executor.AsyncResolveResult{Value: v, Error: err}
		}
	}
	reg.Scheduler.Run(ctx, fns...)
	return results
}

func (r *Runtime) resolveAsync(ctx context.Context, reg *loaders.Registry, t executor.AsyncResolveTask) (v any, err error) {
	coord := t.ObjectType + "." + t.Field
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("resolver panicked", zap.String("field", coord), zap.Any("panic", rec))
			v, err = nil, fmt.Errorf("internal error resolving %s", coord)
		}
	}()
	fn, ok := r.async[coord]
	if !ok {
		return nil, fmt.Errorf("no resolver for %s", coord)
	}
	return fn(ctx, resolveParams{Source: t.Source, Args: t.Args, Info: t.Info, Loaders: reg})
}

// ResolveSync reads owned fields off the model structs.
func (r *Runtime) ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error) {
	switch src := source.(type) {
	case *model.User:
		switch field {
		case "id":
			return src.ID, nil
		case "name":
			return src.Name, nil
		case "balance":
			return src.Balance, nil
		}
	case *model.Post:
		switch field {
		case "id":
			return src.ID, nil
		case "title":
			return src.Title, nil
		case "content":
			return src.Content, nil
		case "authorId":
			return src.AuthorID, nil
		}
	case *model.Profile:
		switch field {
		case "id":
			return src.ID, nil
		case "isMale":
			return src.IsMale, nil
		case "yearOfBirth":
			return src.YearOfBirth, nil
		case "userId":
			return src.UserID, nil
		case "memberTypeId":
			return src.MemberTypeID, nil
		}
	case *model.MemberType:
		switch field {
		case "id":
			return src.ID, nil
		case "discount":
			return src.Discount, nil
		case "postsLimitPerMonth":
			return src.PostsLimitPerMonth, nil
		}
	}
	return nil, fmt.Errorf("no field %s.%s on %T", objectType, field, source)
}

// ResolveType is never reached: the schema has no interfaces or unions.
func (r *Runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	return "", fmt.Errorf("abstract type %s is not supported", abstractType)
}
