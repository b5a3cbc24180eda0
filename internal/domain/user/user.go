package user

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/samber/lo"

	"github.com/xenking/brew-pos/internal/listing"
)

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("user not found")

// Role is a staff member's permission level.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
)

// Roles lists every known role, most privileged first.
var Roles = []Role{RoleAdmin, RoleManager, RoleCashier}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return slices.Contains(Roles, r)
}

// User is a staff account.
type User struct {
	ID        int64
	Username  string
	FullName  string
	Role      Role
	Active    bool
	CreatedAt time.Time
}

// CanManageUsers reports whether u may use the user admin screen.
func (u User) CanManageUsers() bool {
	return u.Active && u.Role == RoleAdmin
}

// CanViewReports reports whether u may open the dashboard and reports.
func (u User) CanViewReports() bool {
	return u.Active && (u.Role == RoleAdmin || u.Role == RoleManager)
}

// CanManageProducts reports whether u may edit the catalog.
func (u User) CanManageProducts() bool {
	return u.CanViewReports()
}

// DisplayName returns the full name, falling back to the username.
func (u User) DisplayName() string {
	if strings.TrimSpace(u.FullName) != "" {
		return u.FullName
	}
	return u.Username
}

// NewUser is the payload for creating an account.
type NewUser struct {
	Username string
	FullName string
	Role     Role
	Password string
}

// Repository defines user administration operations exposed by the backend.
type Repository interface {
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, u NewUser) (*User, error)
	Update(ctx context.Context, u User) (*User, error)
	Delete(ctx context.Context, id int64) error
	ResetPassword(ctx context.Context, id int64, password string) error
}

// Query describes the user admin screen's filter.
type Query struct {
	Search     string
	Role       Role
	ActiveOnly bool
}

// Filter returns the users matching q sorted by username.
func Filter(users []User, q Query) []User {
	out := lo.Filter(users, func(u User, _ int) bool {
		if q.Role != "" && u.Role != q.Role {
			return false
		}
		if q.ActiveOnly && !u.Active {
			return false
		}
		return listing.Match(q.Search, u.Username, u.FullName)
	})
	slices.SortFunc(out, func(a, b User) int {
		return cmp.Compare(a.Username, b.Username)
	})
	return out
}
