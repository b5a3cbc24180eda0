package backend

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/brew-pos/internal/domain/user"
)

var _ user.Repository = (*Users)(nil)

// Users is the user admin endpoint set.
type Users struct{ c *Client }

// Users returns the user admin endpoints.
func (c *Client) Users() *Users { return &Users{c: c} }

func decodeUser(d *jx.Decoder) (user.User, error) {
	var u user.User
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			u.ID, err = decodeInt(d)
		case "username":
			u.Username, err = decodeString(d)
		case "full_name":
			u.FullName, err = decodeString(d)
		case "role":
			var s string
			s, err = decodeString(d)
			u.Role = user.Role(s)
		case "active", "is_active":
			u.Active, err = decodeBool(d)
		case "created_at":
			u.CreatedAt, err = decodeTime(d)
		default:
			return d.Skip()
		}
		return err
	})
	if err != nil {
		return u, errors.Wrap(err, "user")
	}
	return u, nil
}

func userPath(id int64) string {
	return "/api/users/" + strconv.FormatInt(id, 10)
}

func userNotFound(err error, id int64) error {
	if IsStatus(err, http.StatusNotFound) {
		return errors.Wrapf(user.ErrNotFound, "user %d", id)
	}
	return err
}

// List returns every staff account.
func (r *Users) List(ctx context.Context) ([]user.User, error) {
	var out []user.User
	err := r.c.do(ctx, request{method: http.MethodGet, path: "/api/users"}, func(d *jx.Decoder) error {
		return decodeArray(d, func(d *jx.Decoder) error {
			u, err := decodeUser(d)
			out = append(out, u)
			return err
		})
	})
	return out, err
}

// Create adds a staff account.
func (r *Users) Create(ctx context.Context, nu user.NewUser) (*user.User, error) {
	var u user.User
	err := r.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/users",
		body: func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("username")
			e.Str(nu.Username)
			e.FieldStart("full_name")
			e.Str(nu.FullName)
			e.FieldStart("role")
			e.Str(string(nu.Role))
			e.FieldStart("password")
			e.Str(nu.Password)
			e.ObjEnd()
		},
	}, func(d *jx.Decoder) (err error) {
		u, err = decodeUser(d)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Update replaces an account's profile, role and active flag.
func (r *Users) Update(ctx context.Context, in user.User) (*user.User, error) {
	var u user.User
	err := r.c.do(ctx, request{
		method: http.MethodPut,
		path:   userPath(in.ID),
		body: func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("username")
			e.Str(in.Username)
			e.FieldStart("full_name")
			e.Str(in.FullName)
			e.FieldStart("role")
			e.Str(string(in.Role))
			e.FieldStart("active")
			e.Bool(in.Active)
			e.ObjEnd()
		},
	}, func(d *jx.Decoder) (err error) {
		u, err = decodeUser(d)
		return err
	})
	if err != nil {
		return nil, userNotFound(err, in.ID)
	}
	return &u, nil
}

// Delete removes an account.
func (r *Users) Delete(ctx context.Context, id int64) error {
	err := r.c.do(ctx, request{method: http.MethodDelete, path: userPath(id)}, nil)
	return userNotFound(err, id)
}

// ResetPassword sets a new password for an account.
func (r *Users) ResetPassword(ctx context.Context, id int64, password string) error {
	err := r.c.do(ctx, request{
		method: http.MethodPost,
		path:   userPath(id) + "/password",
		body: func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("password")
			e.Str(password)
			e.ObjEnd()
		},
	}, nil)
	return userNotFound(err, id)
}
