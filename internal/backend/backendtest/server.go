// Package backendtest runs an in-memory shop backend for tests.
package backendtest

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is a stored account.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	password  string
}

// Product is a stored catalog item.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Active      bool            `json:"active"`
}

// SaleItem is one recorded line.
type SaleItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Sale is a recorded transaction.
type Sale struct {
	ID            int64           `json:"id"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	ReferenceNo   string          `json:"reference_no"`
	Cashier       string          `json:"cashier"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []SaleItem      `json:"items"`
}

// Request is a recorded incoming request.
type Request struct {
	Method string
	Path   string
	Query  string
	Header http.Header
}

// Server is a fake backend. All methods are safe for concurrent use.
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	users    map[int64]*User
	tokens   map[string]int64
	products map[int64]*Product
	sales    []Sale
	nextID   int64
	fail     []int
	requests []Request
	now      func() time.Time
}

type userKey struct{}

// New starts a fake backend closed on test cleanup.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		users:    make(map[int64]*User),
		tokens:   make(map[string]int64),
		products: make(map[int64]*Product),
		now:      time.Now,
	}
	s.srv = httptest.NewServer(s.routes())
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the base URL.
func (s *Server) URL() string { return s.srv.URL }

// Close stops the server; later requests fail at the transport level.
func (s *Server) Close() { s.srv.Close() }

// SetNow overrides the clock used for sale timestamps and dashboards.
func (s *Server) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// AddUser stores an active account and returns its ID.
func (s *Server) AddUser(username, password, role string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.users[s.nextID] = &User{
		ID:        s.nextID,
		Username:  username,
		FullName:  strings.ToUpper(username[:1]) + username[1:],
		Role:      role,
		Active:    true,
		CreatedAt: s.now(),
		password:  password,
	}
	return s.nextID
}

// AddProduct stores p with a fresh ID and returns it.
func (s *Server) AddProduct(p Product) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	s.products[p.ID] = &p
	return p.ID
}

// Product returns the stored product.
func (s *Server) Product(id int64) (Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, false
	}
	return *p, true
}

// SetStock overwrites a product's stock.
func (s *Server) SetStock(id int64, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[id]; ok {
		p.Stock = stock
	}
}

// Sales returns the recorded sales, oldest first.
func (s *Server) Sales() []Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.sales)
}

// FailNext makes the next n requests answer status.
func (s *Server) FailNext(status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for range n {
		s.fail = append(s.fail, status)
	}
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// ResetRequests forgets recorded requests.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer, s.record)

	r.Post("/api/auth/login", s.login)
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/api/auth/me", s.me)
		r.Post("/api/auth/logout", s.logout)

		r.Get("/api/products", s.listProducts)
		r.Get("/api/products/{id}", s.getProduct)
		r.With(s.require("admin", "manager")).Post("/api/products", s.createProduct)
		r.With(s.require("admin", "manager")).Put("/api/products/{id}", s.updateProduct)
		r.With(s.require("admin", "manager")).Delete("/api/products/{id}", s.deleteProduct)

		r.Post("/api/sales", s.createSale)
		r.Get("/api/sales", s.listSales)
		r.Get("/api/sales/{id}", s.getSale)

		r.Group(func(r chi.Router) {
			r.Use(s.require("admin", "manager"))
			r.Get("/api/dashboard/summary", s.summary)
			r.Get("/api/dashboard/top-products", s.topProducts)
			r.Get("/api/reports/{kind}", s.report)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.require("admin"))
			r.Get("/api/users", s.listUsers)
			r.Post("/api/users", s.createUser)
			r.Put("/api/users/{id}", s.updateUser)
			r.Delete("/api/users/{id}", s.deleteUser)
			r.Post("/api/users/{id}/password", s.resetPassword)
		})
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
		})
		var status int
		if len(s.fail) > 0 {
			status, s.fail = s.fail[0], s.fail[1:]
		}
		s.mu.Unlock()

		if status != 0 {
			writeError(w, status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		id, found := s.tokens[token]
		u := s.users[id]
		s.mu.Unlock()

		if !ok || !found || u == nil || !u.Active {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, *u)))
	})
}

func (s *Server) require(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(roles, current(r).Role) {
				writeError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func current(r *http.Request) User {
	u, _ := r.Context().Value(userKey{}).(User)
	return u
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == body.Username && u.password == body.Password && u.Active {
			token := uuid.NewString()
			s.tokens[token] = u.ID
			writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": u})
			return
		}
	}
	writeError(w, http.StatusUnauthorized, "Invalid username or password")
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"user": current(r)})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listProducts(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	s.mu.Unlock()
	slices.SortFunc(out, func(a, b Product) int { return cmp.Compare(a.ID, b.ID) })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, found := s.Product(id)
	if !found {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var p Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Name == "" {
		writeError(w, http.StatusBadRequest, "Invalid product")
		return
	}
	p.ID = s.AddProduct(p)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in Product
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.products[id]; !found {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	in.ID = id
	s.products[id] = &in
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.products[id]; !found {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	delete(s.products, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createSale(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Items []struct {
			ProductID int64 `json:"product_id"`
			Quantity  int   `json:"quantity"`
		} `json:"items"`
		PaymentMethod string `json:"payment_method"`
		ReferenceNo   string `json:"reference_no"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(body.Items) == 0 {
		writeError(w, http.StatusBadRequest, "Cart is empty")
		return
	}
	switch body.PaymentMethod {
	case "cash":
	case "card", "ewallet":
		if strings.TrimSpace(body.ReferenceNo) == "" {
			writeError(w, http.StatusBadRequest, "Reference number is required")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "Invalid payment method")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[int64]int)
	for _, it := range body.Items {
		if it.Quantity < 1 {
			writeError(w, http.StatusBadRequest, "Quantity must be at least 1")
			return
		}
		want[it.ProductID] += it.Quantity
	}
	for id, qty := range want {
		p, found := s.products[id]
		if !found {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Product %d not found", id))
			return
		}
		if p.Stock < qty {
			writeError(w, http.StatusConflict, fmt.Sprintf("Insufficient stock for %s", p.Name))
			return
		}
	}

	s.nextID++
	sale := Sale{
		ID:            s.nextID,
		Total:         decimal.Zero,
		PaymentMethod: body.PaymentMethod,
		ReferenceNo:   body.ReferenceNo,
		Cashier:       current(r).Username,
		CreatedAt:     s.now(),
	}
	for _, it := range body.Items {
		p := s.products[it.ProductID]
		p.Stock -= it.Quantity
		sub := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		sale.Items = append(sale.Items, SaleItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
			Subtotal:  sub,
		})
		sale.Total = sale.Total.Add(sub)
	}
	s.sales = append(s.sales, sale)
	writeJSON(w, http.StatusCreated, map[string]any{"sale": sale})
}

func (s *Server) listSales(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseRange(w, r)
	if !ok {
		return
	}
	out := s.salesBetween(from, to)
	slices.Reverse(out)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	for _, sale := range s.Sales() {
		if sale.ID == id {
			writeJSON(w, http.StatusOK, sale)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Sale not found")
}

func (s *Server) summary(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	now := s.now()
	s.mu.Unlock()

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	today := s.salesBetween(midnight, midnight.AddDate(0, 0, 1))
	gross := decimal.Zero
	for _, sale := range today {
		gross = gross.Add(sale.Total)
	}
	avg := decimal.Zero
	if len(today) > 0 {
		avg = gross.Div(decimal.NewFromInt(int64(len(today)))).Round(2)
	}
	monthly := decimal.Zero
	for _, sale := range s.salesBetween(month, month.AddDate(0, 1, 0)) {
		monthly = monthly.Add(sale.Total)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sales_today":        gross,
		"transactions_today": len(today),
		"average_ticket":     avg,
		"sales_this_month":   monthly,
	})
}

type topProduct struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

func (s *Server) topProducts(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	byID := make(map[int64]*topProduct)
	for _, sale := range s.Sales() {
		for _, it := range sale.Items {
			tp, ok := byID[it.ProductID]
			if !ok {
				tp = &topProduct{ProductID: it.ProductID, Name: it.Name}
				byID[it.ProductID] = tp
			}
			tp.Quantity += it.Quantity
			tp.Revenue = tp.Revenue.Add(it.Subtotal)
		}
	}
	out := make([]topProduct, 0, len(byID))
	for _, tp := range byID {
		out = append(out, *tp)
	}
	slices.SortFunc(out, func(a, b topProduct) int {
		if c := cmp.Compare(b.Quantity, a.Quantity); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	writeJSON(w, http.StatusOK, out)
}

type reportRow struct {
	Key          any             `json:"key"`
	Label        string          `json:"label"`
	Transactions int             `json:"transactions"`
	Quantity     int             `json:"quantity"`
	Revenue      decimal.Decimal `json:"revenue"`
	sales        map[int64]struct{}
	order        string
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseRange(w, r)
	if !ok {
		return
	}
	kind := chi.URLParam(r, "kind")

	rows := make(map[string]*reportRow)
	add := func(key any, order, label string, saleID int64, qty int, revenue decimal.Decimal) {
		row, ok := rows[order]
		if !ok {
			row = &reportRow{Key: key, Label: label, sales: make(map[int64]struct{}), order: order}
			rows[order] = row
		}
		row.sales[saleID] = struct{}{}
		row.Quantity += qty
		row.Revenue = row.Revenue.Add(revenue)
	}

	for _, sale := range s.salesBetween(from, to) {
		switch kind {
		case "daily":
			day := sale.CreatedAt.Format(time.DateOnly)
			add(day, day, sale.CreatedAt.Format("Jan 2, 2006"), sale.ID, units(sale), sale.Total)
		case "payment":
			add(sale.PaymentMethod, sale.PaymentMethod, strings.ToUpper(sale.PaymentMethod[:1])+sale.PaymentMethod[1:],
				sale.ID, units(sale), sale.Total)
		case "cashier":
			add(sale.Cashier, sale.Cashier, sale.Cashier, sale.ID, units(sale), sale.Total)
		case "product":
			for _, it := range sale.Items {
				add(it.ProductID, fmt.Sprintf("%020d", it.ProductID), it.Name, sale.ID, it.Quantity, it.Subtotal)
			}
		default:
			writeError(w, http.StatusNotFound, "Unknown report")
			return
		}
	}

	out := make([]reportRow, 0, len(rows))
	for _, row := range rows {
		row.Transactions = len(row.sales)
		out = append(out, *row)
	}
	slices.SortFunc(out, func(a, b reportRow) int { return cmp.Compare(a.order, b.order) })
	writeJSON(w, http.StatusOK, out)
}

func units(sale Sale) int {
	n := 0
	for _, it := range sale.Items {
		n += it.Quantity
	}
	return n
}

func (s *Server) listUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	s.mu.Unlock()
	slices.SortFunc(out, func(a, b User) int { return cmp.Compare(a.ID, b.ID) })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		FullName string `json:"full_name"`
		Role     string `json:"role"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "Invalid user")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == body.Username {
			writeError(w, http.StatusConflict, "Username already exists")
			return
		}
	}
	s.nextID++
	u := &User{
		ID:        s.nextID,
		Username:  body.Username,
		FullName:  body.FullName,
		Role:      body.Role,
		Active:    true,
		CreatedAt: s.now(),
		password:  body.Password,
	}
	s.users[u.ID] = u
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Username string `json:"username"`
		FullName string `json:"full_name"`
		Role     string `json:"role"`
		Active   bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, found := s.users[id]
	if !found {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	u.Username, u.FullName, u.Role, u.Active = body.Username, body.FullName, body.Role, body.Active
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if id == current(r).ID {
		writeError(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.users[id]; !found {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	delete(s.users, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Password == "" {
		writeError(w, http.StatusBadRequest, "Password is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, found := s.users[id]
	if !found {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	u.password = body.Password
	w.WriteHeader(http.StatusNoContent)
}

// salesBetween returns sales created in [from, to), oldest first. Zero
// bounds are open.
func (s *Server) salesBetween(from, to time.Time) []Sale {
	var out []Sale
	for _, sale := range s.Sales() {
		if !from.IsZero() && sale.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !sale.CreatedAt.Before(to) {
			continue
		}
		out = append(out, sale)
	}
	return out
}

func parseRange(w http.ResponseWriter, r *http.Request) (from, to time.Time, ok bool) {
	q := r.URL.Query()
	for _, f := range []struct {
		key string
		dst *time.Time
	}{{"from", &from}, {"to", &to}} {
		v := q.Get(f.key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid "+f.key)
			return time.Time{}, time.Time{}, false
		}
		*f.dst = t
	}
	return from, to, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
