package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hanpama/usergraph/internal/model"
	"github.com/lib/pq"
)

func scanPost(sc scanner) (*model.Post, error) {
	p := &model.Post{}
	if err := sc.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) queryPosts(ctx context.Context, op, query string, args ...any) (out []*model.Post, err error) {
	defer func(start time.Time) { observe(ctx, op, start, err) }(time.Now())
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) ListPosts(ctx context.Context) ([]*model.Post, error) {
	return s.queryPosts(ctx, "ListPosts", listPosts)
}

func (s *Store) FindPostsByAuthors(ctx context.Context, authorIDs []string) ([]*model.Post, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	return s.queryPosts(ctx, "FindPostsByAuthors", findPostsByAuthors, pq.Array(authorIDs))
}

func (s *Store) FindPost(ctx context.Context, id string) (p *model.Post, err error) {
	defer func(start time.Time) { observe(ctx, "FindPost", start, err) }(time.Now())
	p, err = scanPost(s.db.QueryRowContext(ctx, findPost, id))
	if err != nil {
		return nil, translate("post", id, err)
	}
	return p, nil
}

func (s *Store) CreatePost(ctx context.Context, id string, in model.CreatePostInput) (p *model.Post, err error) {
	defer func(start time.Time) { observe(ctx, "CreatePost", start, err) }(time.Now())
	p, err = scanPost(s.db.QueryRowContext(ctx, insertPost, id, in.Title, in.Content, in.AuthorID))
	if err != nil {
		return nil, translate("user", in.AuthorID, err)
	}
	return p, nil
}

func (s *Store) UpdatePost(ctx context.Context, id string, in model.ChangePostInput) (p *model.Post, err error) {
	defer func(start time.Time) { observe(ctx, "UpdatePost", start, err) }(time.Now())
	p, err = scanPost(s.db.QueryRowContext(ctx, updatePost, id, in.Title, in.Content))
	if err != nil {
		return nil, translate("post", id, err)
	}
	return p, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { observe(ctx, "DeletePost", start, err) }(time.Now())
	res, err := s.db.ExecContext(ctx, deletePost, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return expectAffected(res, "post", id)
}
