// Package memory is an in-process Store. It is used by tests and by the
// memory storage driver.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/hanpama/usergraph/internal/model"
	"github.com/hanpama/usergraph/internal/store"
)

// Store keeps every table in maps guarded by one RWMutex. Rows are copied
// on the way in and out so callers never share memory with the store.
type Store struct {
	mu          sync.RWMutex
	users       map[string]*model.User
	order       []string
	subs        []model.Subscription
	posts       map[string]*model.Post
	postOrder   []string
	profiles    map[string]*model.Profile
	memberTypes map[model.MemberTypeID]*model.MemberType
}

var _ store.Store = (*Store)(nil)

// New returns a store seeded with the default member types.
func New() *Store {
	s := &Store{
		users:       make(map[string]*model.User),
		posts:       make(map[string]*model.Post),
		profiles:    make(map[string]*model.Profile),
		memberTypes: make(map[model.MemberTypeID]*model.MemberType),
	}
	for _, mt := range model.DefaultMemberTypes() {
		s.memberTypes[mt.ID] = mt
	}
	return s
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, store.ErrNotFound)
}

func (s *Store) userRow(u *model.User, include store.Include) *model.User {
	out := &model.User{ID: u.ID, Name: u.Name, Balance: u.Balance}
	if include != store.IncludeEdges {
		return out
	}
	out.EdgesLoaded = true
	out.SubscribedTo = []model.Subscription{}
	out.Subscribers = []model.Subscription{}
	for _, e := range s.subs {
		if e.SubscriberID == u.ID {
			out.SubscribedTo = append(out.SubscribedTo, e)
		}
		if e.AuthorID == u.ID {
			out.Subscribers = append(out.Subscribers, e)
		}
	}
	return out
}

func (s *Store) ListUsers(ctx context.Context, include store.Include) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.User, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.userRow(s.users[id], include))
	}
	return out, nil
}

func (s *Store) FindUsers(ctx context.Context, ids []string, include store.Include) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.User
	for _, id := range uniq(ids) {
		if u, ok := s.users[id]; ok {
			out = append(out, s.userRow(u, include))
		}
	}
	return out, nil
}

func (s *Store) FindUser(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return s.userRow(u, store.IncludeNone), nil
}

func (s *Store) CreateUser(ctx context.Context, id string, in model.CreateUserInput) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; ok {
		return nil, fmt.Errorf("user %q already exists", id)
	}
	u := &model.User{ID: id, Name: in.Name, Balance: in.Balance}
	s.users[id] = u
	s.order = append(s.order, id)
	return s.userRow(u, store.IncludeNone), nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, in model.ChangeUserInput) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	in.Apply(u)
	return s.userRow(u, store.IncludeNone), nil
}

// DeleteUser removes the user together with its subscriptions, posts and
// profile.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return notFound("user", id)
	}
	delete(s.users, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	s.subs = slices.DeleteFunc(s.subs, func(e model.Subscription) bool {
		return e.SubscriberID == id || e.AuthorID == id
	})
	for pid, p := range s.posts {
		if p.AuthorID == id {
			delete(s.posts, pid)
		}
	}
	s.postOrder = slices.DeleteFunc(s.postOrder, func(pid string) bool {
		_, ok := s.posts[pid]
		return !ok
	})
	for pid, p := range s.profiles {
		if p.UserID == id {
			delete(s.profiles, pid)
		}
	}
	return nil
}

func (s *Store) Subscribe(ctx context.Context, subscriberID, authorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[subscriberID]; !ok {
		return notFound("user", subscriberID)
	}
	if _, ok := s.users[authorID]; !ok {
		return notFound("user", authorID)
	}
	e := model.Subscription{SubscriberID: subscriberID, AuthorID: authorID}
	if !slices.Contains(s.subs, e) {
		s.subs = append(s.subs, e)
	}
	return nil
}

func (s *Store) Unsubscribe(ctx context.Context, subscriberID, authorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := model.Subscription{SubscriberID: subscriberID, AuthorID: authorID}
	i := slices.Index(s.subs, e)
	if i < 0 {
		return fmt.Errorf("subscription %s->%s: %w", subscriberID, authorID, store.ErrNotFound)
	}
	s.subs = slices.Delete(s.subs, i, i+1)
	return nil
}

func (s *Store) ListPosts(ctx context.Context) ([]*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Post, 0, len(s.postOrder))
	for _, id := range s.postOrder {
		p := *s.posts[id]
		out = append(out, &p)
	}
	return out, nil
}

func (s *Store) FindPostsByAuthors(ctx context.Context, authorIDs []string) ([]*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[string]bool, len(authorIDs))
	for _, id := range authorIDs {
		want[id] = true
	}
	var out []*model.Post
	for _, id := range s.postOrder {
		if p := s.posts[id]; want[p.AuthorID] {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) FindPost(ctx context.Context, id string) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, notFound("post", id)
	}
	cp := *p
	return &cp, nil
}

func (s *Store) CreatePost(ctx context.Context, id string, in model.CreatePostInput) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[in.AuthorID]; !ok {
		return nil, notFound("user", in.AuthorID)
	}
	p := &model.Post{ID: id, Title: in.Title, Content: in.Content, AuthorID: in.AuthorID}
	s.posts[id] = p
	s.postOrder = append(s.postOrder, id)
	cp := *p
	return &cp, nil
}

func (s *Store) UpdatePost(ctx context.Context, id string, in model.ChangePostInput) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, notFound("post", id)
	}
	in.Apply(p)
	cp := *p
	return &cp, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return notFound("post", id)
	}
	delete(s.posts, id)
	s.postOrder = slices.DeleteFunc(s.postOrder, func(v string) bool { return v == id })
	return nil
}

func (s *Store) sortedProfiles(keep func(*model.Profile) bool) []*model.Profile {
	out := []*model.Profile{}
	for _, p := range s.profiles {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *model.Profile) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

func (s *Store) ListProfiles(ctx context.Context) ([]*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedProfiles(func(*model.Profile) bool { return true }), nil
}

func (s *Store) FindProfilesByUsers(ctx context.Context, userIDs []string) ([]*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		want[id] = true
	}
	return s.sortedProfiles(func(p *model.Profile) bool { return want[p.UserID] }), nil
}

func (s *Store) FindProfile(ctx context.Context, id string) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, notFound("profile", id)
	}
	cp := *p
	return &cp, nil
}

// CreateProfile enforces one profile per user and a known member type.
func (s *Store) CreateProfile(ctx context.Context, id string, in model.CreateProfileInput) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[in.UserID]; !ok {
		return nil, notFound("user", in.UserID)
	}
	if _, ok := s.memberTypes[in.MemberTypeID]; !ok {
		return nil, notFound("member type", string(in.MemberTypeID))
	}
	for _, p := range s.profiles {
		if p.UserID == in.UserID {
			return nil, fmt.Errorf("user %q already has a profile", in.UserID)
		}
	}
	p := &model.Profile{
		ID:           id,
		IsMale:       in.IsMale,
		YearOfBirth:  in.YearOfBirth,
		UserID:       in.UserID,
		MemberTypeID: in.MemberTypeID,
	}
	s.profiles[id] = p
	cp := *p
	return &cp, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id string, in model.ChangeProfileInput) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, notFound("profile", id)
	}
	if in.MemberTypeID != nil {
		if _, ok := s.memberTypes[*in.MemberTypeID]; !ok {
			return nil, notFound("member type", string(*in.MemberTypeID))
		}
	}
	in.Apply(p)
	cp := *p
	return &cp, nil
}

func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[id]; !ok {
		return notFound("profile", id)
	}
	delete(s.profiles, id)
	return nil
}

func (s *Store) ListMemberTypes(ctx context.Context) ([]*model.MemberType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.MemberType
	for _, id := range model.MemberTypeIDs {
		if mt, ok := s.memberTypes[id]; ok {
			cp := *mt
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) FindMemberTypes(ctx context.Context, ids []model.MemberTypeID) ([]*model.MemberType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.MemberType
	for _, id := range uniq(ids) {
		if mt, ok := s.memberTypes[id]; ok {
			cp := *mt
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) FindMemberType(ctx context.Context, id model.MemberTypeID) (*model.MemberType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mt, ok := s.memberTypes[id]
	if !ok {
		return nil, notFound("member type", string(id))
	}
	cp := *mt
	return &cp, nil
}

func uniq[T comparable](in []T) []T {
	seen := make(map[T]bool, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
