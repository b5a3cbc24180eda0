package backend

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/brew-pos/internal/domain/auth"
	"github.com/xenking/brew-pos/internal/domain/user"
)

var _ auth.Authenticator = (*Client)(nil)

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, *user.User, error) {
	var (
		token string
		u     *user.User
	)
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body: func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("username")
			e.Str(username)
			e.FieldStart("password")
			e.Str(password)
			e.ObjEnd()
		},
	}, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "token":
				s, err := decodeString(d)
				token = s
				return err
			case "user":
				v, err := decodeUser(d)
				u = &v
				return err
			default:
				return d.Skip()
			}
		})
	})
	if err != nil {
		return "", nil, err
	}
	if token == "" || u == nil {
		return "", nil, &ResponseError{Op: "POST /api/auth/login", Err: errors.New("missing token or user")}
	}
	return token, u, nil
}

// Me returns the identity behind the current token.
func (c *Client) Me(ctx context.Context) (*user.User, error) {
	var u *user.User
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/auth/me"}, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			if key != "user" {
				return d.Skip()
			}
			v, err := decodeUser(d)
			u = &v
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &ResponseError{Op: "GET /api/auth/me", Err: errors.New("missing user")}
	}
	return u, nil
}

// Logout revokes the current token on the backend.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/api/auth/logout"}, nil)
}
