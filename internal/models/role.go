package models

// UserRole is the access and circulation category of a library member.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleLibrarian UserRole = "librarian"
	RoleTeacher   UserRole = "teacher"
	RoleStudent   UserRole = "student"
)

// RolePolicy holds the circulation defaults granted to a role.
// A BorrowLimit of 0 means unlimited.
type RolePolicy struct {
	BorrowLimit    int `json:"borrowLimit" yaml:"borrow_limit"`
	BorrowDuration int `json:"borrowDuration" yaml:"borrow_duration"`
}

// RolePolicies is the single table of role defaults. User creation, the seed
// fixtures and the API all read from here.
var RolePolicies = map[UserRole]RolePolicy{
	RoleStudent:   {BorrowLimit: 3, BorrowDuration: 7},
	RoleTeacher:   {BorrowLimit: 5, BorrowDuration: 30},
	RoleLibrarian: {BorrowLimit: 0, BorrowDuration: 30},
	RoleAdmin:     {BorrowLimit: 0, BorrowDuration: 30},
}

func (r UserRole) IsValid() bool {
	_, ok := RolePolicies[r]
	return ok
}

// IsStaff reports whether the role may run circulation and administration.
func (r UserRole) IsStaff() bool {
	return r == RoleAdmin || r == RoleLibrarian
}

// Policy returns the defaults for the role, falling back to the student policy.
func (r UserRole) Policy() RolePolicy {
	if p, ok := RolePolicies[r]; ok {
		return p
	}
	return RolePolicies[RoleStudent]
}
