package backend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/brew-pos/internal/backend"
	"github.com/xenking/brew-pos/internal/backend/backendtest"
	"github.com/xenking/brew-pos/internal/domain/auth"
	"github.com/xenking/brew-pos/internal/domain/product"
	"github.com/xenking/brew-pos/internal/domain/report"
	"github.com/xenking/brew-pos/internal/domain/sale"
	"github.com/xenking/brew-pos/internal/domain/user"
)

func newClient(t *testing.T, srv *backendtest.Server, tok *auth.Bearer) *backend.Client {
	t.Helper()
	c, err := backend.New(backend.Config{
		BaseURL:         srv.URL(),
		Timeout:         5 * time.Second,
		BreakerFailures: 3,
		BreakerCooldown: time.Minute,
	}, tok)
	require.NoError(t, err)
	return c
}

// loggedIn returns a client authenticated as a fresh user with role.
func loggedIn(t *testing.T, srv *backendtest.Server, role string) *backend.Client {
	t.Helper()
	srv.AddUser("user-"+role, "password123", role)
	tok := &auth.Bearer{}
	c := newClient(t, srv, tok)
	token, _, err := c.Login(context.Background(), "user-"+role, "password123")
	require.NoError(t, err)
	tok.Set(token)
	return c
}

func seedCatalog(srv *backendtest.Server) (latte, croissant int64) {
	latte = srv.AddProduct(backendtest.Product{
		Name: "Latte", Category: "Coffee", Price: decimal.RequireFromString("120.00"), Stock: 50, Active: true,
	})
	croissant = srv.AddProduct(backendtest.Product{
		Name: "Croissant", Category: "Pastry", Price: decimal.RequireFromString("85.50"), Stock: 2, Active: true,
	})
	return latte, croissant
}

func TestNew_Validation(t *testing.T) {
	_, err := backend.New(backend.Config{}, &auth.Bearer{})
	require.Error(t, err)

	_, err = backend.New(backend.Config{BaseURL: "ftp://example.com"}, &auth.Bearer{})
	require.Error(t, err)
}

func TestClient_LoginAndMe(t *testing.T) {
	ctx := context.Background()
	srv := backendtest.New(t)
	srv.AddUser("maria", "secret123", "cashier")

	tok := &auth.Bearer{}
	c := newClient(t, srv, tok)

	token, u, err := c.Login(ctx, "maria", "secret123")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, "maria", u.Username)
	assert.Equal(t, user.RoleCashier, u.Role)
	assert.True(t, u.Active)

	tok.Set(token)
	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.ID)

	reqs := srv.Requests()
	require.Len(t, reqs, 2)
	assert.Empty(t, reqs[0].Header.Get("Authorization"))
	assert.Equal(t, "Bearer "+token, reqs[1].Header.Get("Authorization"))
	for _, r := range reqs {
		_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
		require.NoError(t, err)
	}
	assert.NotEqual(t, reqs[0].Header.Get("X-Request-ID"), reqs[1].Header.Get("X-Request-ID"))

	require.NoError(t, c.Logout(ctx))
	_, err = c.Me(ctx)
	require.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestClient_LoginRejected(t *testing.T) {
	srv := backendtest.New(t)
	srv.AddUser("maria", "secret123", "cashier")
	c := newClient(t, srv, &auth.Bearer{})

	for range 5 {
		_, _, err := c.Login(context.Background(), "maria", "wrong")
		require.ErrorIs(t, err, auth.ErrUnauthorized)

		var apiErr *backend.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Invalid username or password", apiErr.Message)
	}
	assert.Equal(t, "closed", c.BreakerState(), "client errors must not open the breaker")
}

func TestProducts_CRUD(t *testing.T) {
	ctx := context.Background()
	srv := backendtest.New(t)
	latte, _ := seedCatalog(srv)
	products := loggedIn(t, srv, "manager").Products()

	list, err := products.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Latte", list[0].Name)
	assert.True(t, list[0].Price.Equal(decimal.RequireFromString("120")))
	assert.Equal(t, 50, list[0].Stock)

	created, err := products.Create(ctx, product.Product{
		Name: "Mocha", Category: "Coffee", Price: decimal.RequireFromString("140.25"), Stock: 12, Active: true,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.True(t, created.Price.Equal(decimal.RequireFromString("140.25")))

	created.Stock = 30
	updated, err := products.Update(ctx, *created)
	require.NoError(t, err)
	assert.Equal(t, 30, updated.Stock)

	got, err := products.Get(ctx, latte)
	require.NoError(t, err)
	assert.Equal(t, "Coffee", got.Category)

	require.NoError(t, products.Delete(ctx, created.ID))
	_, err = products.Get(ctx, created.ID)
	require.ErrorIs(t, err, product.ErrNotFound)
	require.ErrorIs(t, products.Delete(ctx, created.ID), product.ErrNotFound)

	_, err = products.Create(ctx, product.Product{Name: "Bad", Price: decimal.NewFromInt(-1)})
	require.True(t, product.IsValidation(err))
}

func TestProducts_ForbiddenForCashier(t *testing.T) {
	srv := backendtest.New(t)
	products := loggedIn(t, srv, "cashier").Products()

	_, err := products.Create(context.Background(), product.Product{Name: "Tea", Price: decimal.NewFromInt(90)})
	require.Error(t, err)
	assert.True(t, backend.IsStatus(err, http.StatusForbidden))
}

func TestSales_CreateListGet(t *testing.T) {
	ctx := context.Background()
	srv := backendtest.New(t)
	latte, croissant := seedCatalog(srv)
	sales := loggedIn(t, srv, "cashier").Sales()

	s, err := sales.Create(ctx, sale.Request{
		Items: []sale.RequestItem{
			{ProductID: latte, Quantity: 2},
			{ProductID: croissant, Quantity: 1},
		},
		PaymentMethod: sale.PaymentCard,
		ReferenceNo:   "REF-1",
	})
	require.NoError(t, err)
	assert.True(t, s.Total.Equal(decimal.RequireFromString("325.50")), s.Total.String())
	assert.Equal(t, sale.PaymentCard, s.PaymentMethod)
	assert.Equal(t, "user-cashier", s.Cashier)
	require.Len(t, s.Items, 2)
	assert.Equal(t, 3, s.Units())

	p, _ := srv.Product(latte)
	assert.Equal(t, 48, p.Stock)

	list, err := sales.List(ctx, sale.Filter{From: time.Now().Add(-time.Hour), To: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, s.ID, list[0].ID)

	list, err = sales.List(ctx, sale.Filter{From: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := sales.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "REF-1", got.ReferenceNo)

	_, err = sales.Get(ctx, 9999)
	require.ErrorIs(t, err, sale.ErrNotFound)
}

func TestSales_InsufficientStockIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	srv := backendtest.New(t)
	latte, croissant := seedCatalog(srv)
	sales := loggedIn(t, srv, "cashier").Sales()

	_, err := sales.Create(ctx, sale.Request{
		Items: []sale.RequestItem{
			{ProductID: latte, Quantity: 1},
			{ProductID: croissant, Quantity: 3},
		},
		PaymentMethod: sale.PaymentCash,
	})
	require.Error(t, err)
	assert.True(t, backend.IsNetworkOrServer(err))
	assert.True(t, backend.IsStatus(err, http.StatusConflict))
	assert.Contains(t, err.Error(), "Insufficient stock for Croissant")

	p, _ := srv.Product(latte)
	assert.Equal(t, 50, p.Stock)
	assert.Empty(t, srv.Sales())
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	srv := backendtest.New(t)
	latte, croissant := seedCatalog(srv)
	c := loggedIn(t, srv, "manager")

	for _, items := range [][]sale.RequestItem{
		{{ProductID: latte, Quantity: 2}},
		{{ProductID: latte, Quantity: 1}, {ProductID: croissant, Quantity: 1}},
	} {
		_, err := c.Sales().Create(ctx, sale.Request{Items: items, PaymentMethod: sale.PaymentCash})
		require.NoError(t, err)
	}

	sum, err := c.Dashboard().Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.TransactionsToday)
	assert.True(t, sum.SalesToday.Equal(decimal.RequireFromString("445.50")), sum.SalesToday.String())
	assert.True(t, sum.AverageTicket.Equal(decimal.RequireFromString("222.75")), sum.AverageTicket.String())

	top, err := c.Dashboard().TopProducts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, latte, top[0].ProductID)
	assert.Equal(t, 3, top[0].Quantity)
	assert.True(t, top[0].Revenue.Equal(decimal.NewFromInt(360)))
}

func TestReports_Fetch(t *testing.T) {
	ctx := context.Background()
	srv := backendtest.New(t)
	latte, croissant := seedCatalog(srv)
	c := loggedIn(t, srv, "admin")

	_, err := c.Sales().Create(ctx, sale.Request{
		Items:         []sale.RequestItem{{ProductID: latte, Quantity: 2}, {ProductID: croissant, Quantity: 1}},
		PaymentMethod: sale.PaymentEWallet,
		ReferenceNo:   "GC-1",
	})
	require.NoError(t, err)

	rows, err := c.Reports().Fetch(ctx, report.Query{Kind: report.KindProduct})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, strconv.FormatInt(latte, 10), rows[0].Key)
	assert.Equal(t, "Latte", rows[0].Label)
	assert.Equal(t, 2, rows[0].Quantity)
	assert.Equal(t, 1, rows[0].Transactions)
	assert.True(t, rows[0].Revenue.Equal(decimal.NewFromInt(240)))

	rows, err = c.Reports().Fetch(ctx, report.Query{Kind: report.KindPayment})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ewallet", rows[0].Key)

	now := time.Now()
	_, err = c.Reports().Fetch(ctx, report.Query{Kind: report.KindDaily, From: now, To: now.Add(-time.Hour)})
	require.ErrorIs(t, err, report.ErrInvalidRange)
}

func TestUsers_Admin(t *testing.T) {
	ctx := context.Background()
	srv := backendtest.New(t)
	users := loggedIn(t, srv, "admin").Users()

	created, err := users.Create(ctx, user.NewUser{
		Username: "jose", FullName: "Jose Rizal", Role: user.RoleCashier, Password: "longpassword",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jose Rizal", created.FullName)

	created.Role = user.RoleManager
	created.Active = false
	updated, err := users.Update(ctx, *created)
	require.NoError(t, err)
	assert.Equal(t, user.RoleManager, updated.Role)
	assert.False(t, updated.Active)

	require.NoError(t, users.ResetPassword(ctx, created.ID, "anotherpassword"))

	list, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, users.Delete(ctx, created.ID))
	require.ErrorIs(t, users.Delete(ctx, created.ID), user.ErrNotFound)
	require.ErrorIs(t, users.ResetPassword(ctx, created.ID, "whatever123"), user.ErrNotFound)
}

func TestUsers_ForbiddenForManager(t *testing.T) {
	srv := backendtest.New(t)
	_, err := loggedIn(t, srv, "manager").Users().List(context.Background())
	assert.True(t, backend.IsStatus(err, http.StatusForbidden))
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	ctx := context.Background()
	srv := backendtest.New(t)
	c := loggedIn(t, srv, "cashier")
	srv.ResetRequests()
	srv.FailNext(http.StatusServiceUnavailable, 3)

	for range 3 {
		_, err := c.Products().List(ctx)
		require.True(t, backend.IsStatus(err, http.StatusServiceUnavailable))
	}
	assert.Equal(t, "open", c.BreakerState())

	_, err := c.Products().List(ctx)
	require.ErrorIs(t, err, backend.ErrUnavailable)
	assert.True(t, backend.IsNetworkOrServer(err))
	assert.Len(t, srv.Requests(), 3, "open breaker must not reach the backend")
}

func TestClient_TransportError(t *testing.T) {
	srv := backendtest.New(t)
	c := newClient(t, srv, &auth.Bearer{})
	srv.Close()

	_, err := c.Products().List(context.Background())
	require.Error(t, err)
	var tErr *backend.TransportError
	require.True(t, errors.As(err, &tErr))
	assert.True(t, backend.IsNetworkOrServer(err))
	require.Error(t, c.Ping(context.Background()))
}

func TestClient_Ping(t *testing.T) {
	srv := backendtest.New(t)
	c := newClient(t, srv, &auth.Bearer{})
	require.NoError(t, c.Ping(context.Background()), "401 still means the backend is up")

	srv.FailNext(http.StatusInternalServerError, 1)
	require.Error(t, c.Ping(context.Background()))
}

func TestSales_CreateWithoutSaleIsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)

	c, err := backend.New(backend.Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, &auth.Bearer{})
	require.NoError(t, err)

	_, err = c.Sales().Create(context.Background(), sale.Request{
		Items:         []sale.RequestItem{{ProductID: 1, Quantity: 1}},
		PaymentMethod: sale.PaymentCash,
	})
	require.Error(t, err)
	assert.True(t, backend.IsNetworkOrServer(err))

	var respErr *backend.ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, "POST /api/sales", respErr.Op)
}
