package graph

import (
	"context"

	"github.com/hanpama/usergraph/internal/executor"
	"github.com/hanpama/usergraph/internal/schema"
	"github.com/hanpama/usergraph/internal/store"
)

var edgeFields = map[string]bool{
	"userSubscribedTo": true,
	"subscribedToUser": true,
}

// selectsEdges reports whether any User position at or below info selects a
// subscription edge field. Fragments and @skip/@include are applied by
// CollectSubfields.
func selectsEdges(info *executor.ResolveInfo) bool {
	t := info.Schema.Types[schema.GetNamedType(info.ReturnType)]
	if t == nil || t.Kind != schema.TypeKindObject {
		return false
	}
	for _, cf := range info.CollectSubfields(t) {
		if t.Name == "User" && edgeFields[cf.Fields[0].Name] {
			return true
		}
		if sub := info.SubfieldInfo(t, cf); sub != nil && selectsEdges(sub) {
			return true
		}
	}
	return false
}

// queryUsers lists all users in one storage call, including the subscription
// edges only when the selection reads them, and primes the user loader with
// every row so nested lookups of these users cost nothing.
func (r *Runtime) queryUsers(ctx context.Context, p resolveParams) (any, error) {
	include := store.IncludeEdges
	if p.Info != nil && !selectsEdges(p.Info) {
		include = store.IncludeNone
	}
	users, err := r.store.ListUsers(ctx, include)
	if err != nil {
		return nil, err
	}
	p.Loaders.PrimeUsers(users)
	return users, nil
}
