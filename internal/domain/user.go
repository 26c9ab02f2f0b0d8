package domain

import "time"

// User is a seller-scoped user record. The (SellerID, Email) pair is unique
// per the storage constraint; deletion only flips IsActive.
type User struct {
	ID          string
	SellerID    int64
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserPatch carries a partial update. Nil fields are left untouched.
type UserPatch struct {
	Email       *string
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	IsActive    *bool
}

// IsEmpty reports whether the patch would change nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Email == nil && p.FirstName == nil && p.LastName == nil &&
		p.PhoneNumber == nil && p.IsActive == nil
}

// DefaultPageSize applies when a listing does not ask for a page size.
const DefaultPageSize = 20

// ListQuery filters and paginates a user listing.
type ListQuery struct {
	Page     int
	PageSize int
	Search   string
	IsActive *bool
}

// Skip returns the number of records preceding the requested page.
func (q ListQuery) Skip() int {
	return (q.Page - 1) * q.PageSize
}

// UserPage is one page of a filtered listing plus its pagination metadata.
type UserPage struct {
	Users       []User
	TotalCount  int
	Page        int
	PageSize    int
	TotalPages  int
	HasNext     bool
	HasPrevious bool
}
