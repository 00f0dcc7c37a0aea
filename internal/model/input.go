package model

type CreateUserInput struct {
	Name    string
	Balance float64
}

type ChangeUserInput struct {
	Name    *string
	Balance *float64
}

type CreatePostInput struct {
	Title    string
	Content  string
	AuthorID string
}

type ChangePostInput struct {
	Title   *string
	Content *string
}

type CreateProfileInput struct {
	IsMale       bool
	YearOfBirth  int
	UserID       string
	MemberTypeID MemberTypeID
}

type ChangeProfileInput struct {
	IsMale       *bool
	YearOfBirth  *int
	MemberTypeID *MemberTypeID
}

// Apply copies the set fields of in onto u.
func (in ChangeUserInput) Apply(u *User) {
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Balance != nil {
		u.Balance = *in.Balance
	}
}

func (in ChangePostInput) Apply(p *Post) {
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Content != nil {
		p.Content = *in.Content
	}
}

func (in ChangeProfileInput) Apply(p *Profile) {
	if in.IsMale != nil {
		p.IsMale = *in.IsMale
	}
	if in.YearOfBirth != nil {
		p.YearOfBirth = *in.YearOfBirth
	}
	if in.MemberTypeID != nil {
		p.MemberTypeID = *in.MemberTypeID
	}
}
