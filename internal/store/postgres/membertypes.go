package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hanpama/usergraph/internal/model"
	"github.com/lib/pq"
)

func scanMemberType(sc scanner) (*model.MemberType, error) {
	mt := &model.MemberType{}
	var id string
	if err := sc.Scan(&id, &mt.Discount, &mt.PostsLimitPerMonth); err != nil {
		return nil, err
	}
	mt.ID = model.MemberTypeID(id)
	return mt, nil
}

func (s *Store) queryMemberTypes(ctx context.Context, op, query string, args ...any) (out []*model.MemberType, err error) {
	defer func(start time.Time) { observe(ctx, op, start, err) }(time.Now())
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query member types: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		mt, err := scanMemberType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member type: %w", err)
		}
		out = append(out, mt)
	}
	return out, rows.Err()
}

func (s *Store) ListMemberTypes(ctx context.Context) ([]*model.MemberType, error) {
	return s.queryMemberTypes(ctx, "ListMemberTypes", listMemberTypes)
}

func (s *Store) FindMemberTypes(ctx context.Context, ids []model.MemberTypeID) ([]*model.MemberType, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = string(id)
	}
	return s.queryMemberTypes(ctx, "FindMemberTypes", findMemberTypes, pq.Array(keys))
}

func (s *Store) FindMemberType(ctx context.Context, id model.MemberTypeID) (mt *model.MemberType, err error) {
	defer func(start time.Time) { observe(ctx, "FindMemberType", start, err) }(time.Now())
	mt, err = scanMemberType(s.db.QueryRowContext(ctx, findMemberType, string(id)))
	if err != nil {
		return nil, translate("member type", string(id), err)
	}
	return mt, nil
}
