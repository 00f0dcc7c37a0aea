package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hanpama/usergraph/internal/model"
)

// SerializeLeafValue renders UUIDs in canonical form and member type ids as
// their enum names. Built-in scalars pass through.
func (r *Runtime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	switch typeName {
	case "UUID":
		switch v := value.(type) {
		case string:
			return v, nil
		case uuid.UUID:
			return v.String(), nil
		}
		return nil, fmt.Errorf("UUID cannot represent %T", value)
	case "MemberTypeId":
		switch v := value.(type) {
		case model.MemberTypeID:
			return string(v), nil
		case string:
			id, err := model.ParseMemberTypeID(v)
			if err != nil {
				return nil, err
			}
			return string(id), nil
		}
		return nil, fmt.Errorf("MemberTypeId cannot represent %T", value)
	}
	return value, nil
}

// ParseLeafValue validates UUID input.
func (r *Runtime) ParseLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	if typeName != "UUID" {
		return value, nil
	}
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("UUID must be a string, got %T", value)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID %q: %w", s, err)
	}
	return id.String(), nil
}
