// Package storetest provides a store.Store wrapper that records every call,
// for tests that assert how many storage round trips a query costs.
package storetest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/hanpama/usergraph/internal/model"
	"github.com/hanpama/usergraph/internal/store"
)

// Call is one recorded storage call. Keys holds the sorted key set of batch
// calls.
type Call struct {
	Method  string
	Keys    []string
	Include store.Include
}

// Counting forwards to Store and records each call. Fail, when set, is
// consulted first and may return an error to inject for a method.
type Counting struct {
	store.Store

	Fail func(method string) error

	mu    sync.Mutex
	calls []Call
}

var _ store.Store = (*Counting)(nil)

func NewCounting(s store.Store) *Counting { return &Counting{Store: s} }

func (c *Counting) record(method string, keys []string, include store.Include) error {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	c.mu.Lock()
	c.calls = append(c.calls, Call{Method: method, Keys: sorted, Include: include})
	fail := c.Fail
	c.mu.Unlock()
	if fail != nil {
		return fail(method)
	}
	return nil
}

// Calls returns a copy of the recorded calls in order.
func (c *Counting) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.calls)
}

// Count returns how many times method was called.
func (c *Counting) Count(method string) int {
	n := 0
	for _, call := range c.Calls() {
		if call.Method == method {
			n++
		}
	}
	return n
}

func (c *Counting) Reset() {
	c.mu.Lock()
	c.calls = nil
	c.mu.Unlock()
}

func (c *Counting) ListUsers(ctx context.Context, include store.Include) ([]*model.User, error) {
	if err := c.record("ListUsers", nil, include); err != nil {
		return nil, err
	}
	return c.Store.ListUsers(ctx, include)
}

func (c *Counting) FindUsers(ctx context.Context, ids []string, include store.Include) ([]*model.User, error) {
	if err := c.record("FindUsers", ids, include); err != nil {
		return nil, err
	}
	return c.Store.FindUsers(ctx, ids, include)
}

func (c *Counting) FindUser(ctx context.Context, id string) (*model.User, error) {
	if err := c.record("FindUser", []string{id}, store.IncludeNone); err != nil {
		return nil, err
	}
	return c.Store.FindUser(ctx, id)
}

func (c *Counting) ListPosts(ctx context.Context) ([]*model.Post, error) {
	if err := c.record("ListPosts", nil, store.IncludeNone); err != nil {
		return nil, err
	}
	return c.Store.ListPosts(ctx)
}

func (c *Counting) FindPostsByAuthors(ctx context.Context, authorIDs []string) ([]*model.Post, error) {
	if err := c.record("FindPostsByAuthors", authorIDs, store.IncludeNone); err != nil {
		return nil, err
	}
	return c.Store.FindPostsByAuthors(ctx, authorIDs)
}

func (c *Counting) FindPost(ctx context.Context, id string) (*model.Post, error) {
	if err := c.record("FindPost", []string{id}, store.IncludeNone); err != nil {
		return nil, err
	}
	return c.Store.FindPost(ctx, id)
}

func (c *Counting) ListProfiles(ctx context.Context) ([]*model.Profile, error) {
	if err := c.record("ListProfiles", nil, store.IncludeNone); err != nil {
		return nil, err
	}
	return c.Store.ListProfiles(ctx)
}

func (c *Counting) FindProfilesByUsers(ctx context.Context, userIDs []string) ([]*model.Profile, error) {
	if err := c.record("FindProfilesByUsers", userIDs, store.IncludeNone); err != nil {
		return nil, err
	}
	return c.Store.FindProfilesByUsers(ctx, userIDs)
}

func (c *Counting) FindProfile(ctx context.Context, id string) (*model.Profile, error) {
	if err := c.record("FindProfile", []string{id}, store.IncludeNone); err != nil {
		return nil, err
	}
	return c.Store.FindProfile(ctx, id)
}

func (c *Counting) ListMemberTypes(ctx context.Context) ([]*model.MemberType, error) {
	if err := c.record("ListMemberTypes", nil, store.IncludeNone); err != nil {
		return nil, err
	}
	return c.Store.ListMemberTypes(ctx)
}

func (c *Counting) FindMemberTypes(ctx context.Context, ids []model.MemberTypeID) ([]*model.MemberType, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = string(id)
	}
	if err := c.record("FindMemberTypes", keys, store.IncludeNone); err != nil {
		return nil, err
	}
	return c.Store.FindMemberTypes(ctx, ids)
}

func (c *Counting) FindMemberType(ctx context.Context, id model.MemberTypeID) (*model.MemberType, error) {
	if err := c.record("FindMemberType", []string{string(id)}, store.IncludeNone); err != nil {
		return nil, err
	}
	return c.Store.FindMemberType(ctx, id)
}

// FailOn returns a Fail func that fails method with err.
func FailOn(method string, err error) func(string) error {
	return func(m string) error {
		if m == method {
			return fmt.Errorf("%s: %w", m, err)
		}
		return nil
	}
}
