package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hanpama/usergraph/internal/model"
	"github.com/hanpama/usergraph/internal/store"
	"github.com/lib/pq"
)

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(sc scanner, include store.Include) (*model.User, error) {
	u := &model.User{}
	if include != store.IncludeEdges {
		if err := sc.Scan(&u.ID, &u.Name, &u.Balance); err != nil {
			return nil, err
		}
		return u, nil
	}
	var authors, subscribers []string
	if err := sc.Scan(&u.ID, &u.Name, &u.Balance, pq.Array(&authors), pq.Array(&subscribers)); err != nil {
		return nil, err
	}
	u.EdgesLoaded = true
	u.SubscribedTo = make([]model.Subscription, len(authors))
	for i, a := range authors {
		u.SubscribedTo[i] = model.Subscription{SubscriberID: u.ID, AuthorID: a}
	}
	u.Subscribers = make([]model.Subscription, len(subscribers))
	for i, sub := range subscribers {
		u.Subscribers[i] = model.Subscription{SubscriberID: sub, AuthorID: u.ID}
	}
	return u, nil
}

func (s *Store) queryUsers(ctx context.Context, op, query string, include store.Include, args ...any) (out []*model.User, err error) {
	defer func(start time.Time) { observe(ctx, op, start, err) }(time.Now())
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows, include)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) ListUsers(ctx context.Context, include store.Include) ([]*model.User, error) {
	q := listUsers
	if include == store.IncludeEdges {
		q = listUsersEd
	}
	return s.queryUsers(ctx, "ListUsers", q, include)
}

func (s *Store) FindUsers(ctx context.Context, ids []string, include store.Include) ([]*model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := findUsers
	if include == store.IncludeEdges {
		q = findUsersEd
	}
	return s.queryUsers(ctx, "FindUsers", q, include, pq.Array(ids))
}

func (s *Store) FindUser(ctx context.Context, id string) (u *model.User, err error) {
	defer func(start time.Time) { observe(ctx, "FindUser", start, err) }(time.Now())
	u, err = scanUser(s.db.QueryRowContext(ctx, findUser, id), store.IncludeNone)
	if err != nil {
		return nil, translate("user", id, err)
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, id string, in model.CreateUserInput) (u *model.User, err error) {
	defer func(start time.Time) { observe(ctx, "CreateUser", start, err) }(time.Now())
	u, err = scanUser(s.db.QueryRowContext(ctx, insertUser, id, in.Name, in.Balance), store.IncludeNone)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, in model.ChangeUserInput) (u *model.User, err error) {
	defer func(start time.Time) { observe(ctx, "UpdateUser", start, err) }(time.Now())
	u, err = scanUser(s.db.QueryRowContext(ctx, updateUser, id, in.Name, in.Balance), store.IncludeNone)
	if err != nil {
		return nil, translate("user", id, err)
	}
	return u, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { observe(ctx, "DeleteUser", start, err) }(time.Now())
	res, err := s.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectAffected(res, "user", id)
}

func (s *Store) Subscribe(ctx context.Context, subscriberID, authorID string) (err error) {
	defer func(start time.Time) { observe(ctx, "Subscribe", start, err) }(time.Now())
	if _, err = s.db.ExecContext(ctx, subscribe, subscriberID, authorID); err != nil {
		return translate("subscription", subscriberID+"->"+authorID, err)
	}
	return nil
}

func (s *Store) Unsubscribe(ctx context.Context, subscriberID, authorID string) (err error) {
	defer func(start time.Time) { observe(ctx, "Unsubscribe", start, err) }(time.Now())
	var res sql.Result
	res, err = s.db.ExecContext(ctx, unsubscribe, subscriberID, authorID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return expectAffected(res, "subscription", subscriberID+"->"+authorID)
}
