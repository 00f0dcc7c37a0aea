package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hanpama/usergraph/internal/model"
	"github.com/lib/pq"
)

func scanProfile(sc scanner) (*model.Profile, error) {
	p := &model.Profile{}
	var memberType string
	if err := sc.Scan(&p.ID, &p.IsMale, &p.YearOfBirth, &p.UserID, &memberType); err != nil {
		return nil, err
	}
	p.MemberTypeID = model.MemberTypeID(memberType)
	return p, nil
}

func (s *Store) queryProfiles(ctx context.Context, op, query string, args ...any) (out []*model.Profile, err error) {
	defer func(start time.Time) { observe(ctx, op, start, err) }(time.Now())
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) ListProfiles(ctx context.Context) ([]*model.Profile, error) {
	return s.queryProfiles(ctx, "ListProfiles", listProfiles)
}

func (s *Store) FindProfilesByUsers(ctx context.Context, userIDs []string) ([]*model.Profile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	return s.queryProfiles(ctx, "FindProfilesByUsers", findProfilesByUsers, pq.Array(userIDs))
}

func (s *Store) FindProfile(ctx context.Context, id string) (p *model.Profile, err error) {
	defer func(start time.Time) { observe(ctx, "FindProfile", start, err) }(time.Now())
	p, err = scanProfile(s.db.QueryRowContext(ctx, findProfile, id))
	if err != nil {
		return nil, translate("profile", id, err)
	}
	return p, nil
}

func (s *Store) CreateProfile(ctx context.Context, id string, in model.CreateProfileInput) (p *model.Profile, err error) {
	defer func(start time.Time) { observe(ctx, "CreateProfile", start, err) }(time.Now())
	p, err = scanProfile(s.db.QueryRowContext(ctx, insertProfile,
		id, in.IsMale, in.YearOfBirth, in.UserID, string(in.MemberTypeID)))
	if err != nil {
		return nil, translate("profile", id, err)
	}
	return p, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id string, in model.ChangeProfileInput) (p *model.Profile, err error) {
	defer func(start time.Time) { observe(ctx, "UpdateProfile", start, err) }(time.Now())
	var memberType *string
	if in.MemberTypeID != nil {
		v := string(*in.MemberTypeID)
		memberType = &v
	}
	p, err = scanProfile(s.db.QueryRowContext(ctx, updateProfile, id, in.IsMale, in.YearOfBirth, memberType))
	if err != nil {
		return nil, translate("profile", id, err)
	}
	return p, nil
}

func (s *Store) DeleteProfile(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { observe(ctx, "DeleteProfile", start, err) }(time.Now())
	res, err := s.db.ExecContext(ctx, deleteProfile, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return expectAffected(res, "profile", id)
}
