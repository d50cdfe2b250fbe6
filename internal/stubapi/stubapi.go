// Package stubapi is an in-process stand-in for the backend collaborators.
// It serves canned fixtures with scripted payment transitions so the API
// clients, workflow and poller can be exercised end to end without the
// real backend. It implements no business logic beyond that.
package stubapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/neointegratech/portal-client/internal/domain/model"
	apperrors "github.com/neointegratech/portal-client/pkg/errors"
	"github.com/neointegratech/portal-client/pkg/logger"
)

// Options tunes the stub's scripted behavior.
type Options struct {
	// JWTSecret signs and verifies issued tokens.
	JWTSecret string
	// TokenTTL bounds issued tokens, default one hour.
	TokenTTL time.Duration
	// SucceedAfterChecks makes check-status flip a pending payment to
	// success on the Nth check. Zero keeps payments pending forever.
	SucceedAfterChecks int
	Logger             *zap.Logger
}

// Server holds the stub's in-memory state.
type Server struct {
	opts Options

	mu            sync.Mutex
	users         map[string]*stubUser
	orders        []*model.Order
	payments      []*model.Payment
	subscriptions []*model.Subscription
	checks        map[int64]int
	nextUserID    int64
	nextOrderID   int64
	nextPaymentID int64

	services []model.Service
}

type stubUser struct {
	user     model.User
	password string
}

func New(opts Options) *Server {
	if opts.JWTSecret == "" {
		opts.JWTSecret = "stub-secret"
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Server{
		opts:          opts,
		users:         make(map[string]*stubUser),
		checks:        make(map[int64]int),
		nextUserID:    1,
		nextOrderID:   1,
		nextPaymentID: 1,
		services:      seedServices(),
	}
}

// Handler builds the Echo handler tree.
func (s *Server) Handler() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.Use(logger.NewEchoRequestLogger(s.opts.Logger))

	// Unmatched routes and stray errors answer in the same {"detail": ...}
	// shape the handlers use.
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		httpErr := apperrors.ToHTTPError(err)
		msg := fmt.Sprintf("%v", httpErr.Message)
		if jsonErr := detail(c, httpErr.Code, msg); jsonErr != nil {
			s.opts.Logger.Warn("failed to write error response", zap.Error(jsonErr))
		}
	}

	api := e.Group("/api")

	api.POST("/auth/register", s.register)
	api.POST("/auth/login", s.login)
	api.GET("/auth/me", s.me)

	api.GET("/services/", s.listServices)
	api.GET("/services/:slug", s.serviceBySlug)

	api.POST("/orders/", s.createOrder)
	api.GET("/orders/", s.listOrders)
	api.GET("/orders/number/:number", s.orderByNumber)
	api.DELETE("/orders/:number", s.cancelOrder)

	api.POST("/payments/", s.createPayment)
	api.GET("/payments/order/:order_id", s.paymentsByOrder)
	api.GET("/payments/:id", s.paymentByID)
	api.POST("/payments/check-status/:id", s.checkStatus)

	api.GET("/subscriptions/my-subscriptions", s.mySubscriptions)
	api.GET("/subscriptions/expiring-soon", s.expiringSubscriptions)
	api.POST("/subscriptions/renew/:id", s.renewSubscription)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	return e
}

func seedServices() []model.Service {
	now := time.Now()
	mk := func(id int64, name, slug, category string, price int64) model.Service {
		return model.Service{
			ID:        id,
			Name:      name,
			Slug:      slug,
			Category:  category,
			Price:     decimal.NewFromInt(price),
			IsActive:  true,
			CreatedAt: now,
		}
	}
	return []model.Service{
		mk(1, "All In Service", "all-in", "bundle", 81000000),
		mk(2, "Website Service", "website", "web", 36000000),
		mk(3, "SEO Service", "seo", "marketing", 42000000),
		mk(4, "Mail Server Service", "mail-server", "email", 15000000),
		mk(5, "Cloudflare Service", "cloudflare", "security", 24000000),
		mk(6, "Test Payment", "test-payment", "test", 5000),
	}
}

func detail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"detail": msg})
}

// --- auth ---

type registerBody struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CompanyName string `json:"company_name"`
	Password    string `json:"password"`
}

func (s *Server) register(c echo.Context) error {
	var body registerBody
	if err := c.Bind(&body); err != nil {
		return detail(c, http.StatusBadRequest, "invalid request body")
	}
	if body.Email == "" || body.Password == "" || body.FullName == "" {
		return detail(c, http.StatusBadRequest, "full_name, email and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[body.Email]; exists {
		return detail(c, http.StatusBadRequest, "Email already registered")
	}

	user := model.User{
		ID:          s.nextUserID,
		Email:       body.Email,
		FullName:    body.FullName,
		Phone:       body.Phone,
		CompanyName: body.CompanyName,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	s.nextUserID++
	s.users[body.Email] = &stubUser{user: user, password: body.Password}

	return c.JSON(http.StatusCreated, echo.Map{
		"access_token": s.issueToken(user),
		"token_type":   "bearer",
		"user":         user,
	})
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c echo.Context) error {
	var body loginBody
	if err := c.Bind(&body); err != nil {
		return detail(c, http.StatusBadRequest, "invalid request body")
	}

	s.mu.Lock()
	record, ok := s.users[body.Email]
	s.mu.Unlock()

	if !ok || record.password != body.Password {
		return detail(c, http.StatusUnauthorized, "Invalid email or password")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": s.issueToken(record.user),
		"token_type":   "bearer",
		"user":         record.user,
	})
}

func (s *Server) me(c echo.Context) error {
	user, err := s.authenticate(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (s *Server) issueToken(user model.User) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   strconv.FormatInt(user.ID, 10),
		"email": user.Email,
		"exp":   time.Now().Add(s.opts.TokenTTL).Unix(),
		"iat":   time.Now().Unix(),
	})
	signed, _ := token.SignedString([]byte(s.opts.JWTSecret))
	return signed
}

// authenticate resolves the bearer token's user. Failures surface through
// the central error handler as 401 {"detail": ...} responses.
func (s *Server) authenticate(c echo.Context) (*model.User, error) {
	authHeader := c.Request().Header.Get("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if authHeader == "" || tokenString == authHeader {
		return nil, apperrors.NewAppError(apperrors.ErrUnauthenticated, "Not authenticated", nil)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.opts.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.NewAppError(apperrors.ErrUnauthenticated, "Invalid token", nil)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.NewAppError(apperrors.ErrUnauthenticated, "Invalid token", nil)
	}
	email, _ := claims["email"].(string)

	s.mu.Lock()
	record, found := s.users[email]
	s.mu.Unlock()
	if !found {
		return nil, apperrors.NewAppError(apperrors.ErrUnauthenticated, "User not found", nil)
	}
	u := record.user
	return &u, nil
}

// --- services ---

func (s *Server) listServices(c echo.Context) error {
	return c.JSON(http.StatusOK, s.services)
}

func (s *Server) serviceBySlug(c echo.Context) error {
	slug := c.Param("slug")
	for _, svc := range s.services {
		if svc.Slug == slug {
			return c.JSON(http.StatusOK, svc)
		}
	}
	return detail(c, http.StatusNotFound, "Service not found")
}

// --- orders ---

type createOrderBody struct {
	ServiceSlug string `json:"service_slug"`
	Quantity    int    `json:"quantity"`
	Notes       string `json:"notes"`
}

func (s *Server) createOrder(c echo.Context) error {
	user, err := s.authenticate(c)
	if err != nil {
		return err
	}

	var body createOrderBody
	if err := c.Bind(&body); err != nil {
		return detail(c, http.StatusBadRequest, "invalid request body")
	}
	if body.Quantity <= 0 {
		body.Quantity = 1
	}

	var service *model.Service
	for i := range s.services {
		if s.services[i].Slug == body.ServiceSlug {
			service = &s.services[i]
			break
		}
	}
	if service == nil {
		return detail(c, http.StatusBadRequest, fmt.Sprintf("Service '%s' not found", body.ServiceSlug))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order := &model.Order{
		ID:          s.nextOrderID,
		UserID:      user.ID,
		OrderNumber: fmt.Sprintf("ORD-%s-%04d", time.Now().Format("20060102"), s.nextOrderID),
		ServiceName: service.Name,
		Quantity:    body.Quantity,
		UnitPrice:   service.Price,
		TotalPrice:  service.Price.Mul(decimal.NewFromInt(int64(body.Quantity))),
		Status:      model.OrderStatusPending,
		Notes:       body.Notes,
		CreatedAt:   time.Now(),
	}
	s.nextOrderID++
	s.orders = append(s.orders, order)

	return c.JSON(http.StatusCreated, order)
}

func (s *Server) listOrders(c echo.Context) error {
	user, err := s.authenticate(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Order, 0)
	for i := len(s.orders) - 1; i >= 0; i-- {
		if s.orders[i].UserID == user.ID {
			out = append(out, s.orders[i])
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) orderByNumber(c echo.Context) error {
	user, err := s.authenticate(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, order := range s.orders {
		if order.OrderNumber == c.Param("number") && order.UserID == user.ID {
			return c.JSON(http.StatusOK, order)
		}
	}
	return detail(c, http.StatusNotFound, "Order not found")
}

func (s *Server) cancelOrder(c echo.Context) error {
	user, err := s.authenticate(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, order := range s.orders {
		if order.OrderNumber == c.Param("number") && order.UserID == user.ID {
			if order.Status != model.OrderStatusPending {
				return detail(c, http.StatusBadRequest, "Only pending orders can be cancelled")
			}
			order.Status = model.OrderStatusCancelled
			return c.JSON(http.StatusOK, echo.Map{"message": "Order cancelled"})
		}
	}
	return detail(c, http.StatusNotFound, "Order not found")
}

// --- payments ---

type createPaymentBody struct {
	OrderID        int64           `json:"order_id"`
	PaymentMethod  string          `json:"payment_method"`
	PaymentChannel string          `json:"payment_channel"`
	Amount         decimal.Decimal `json:"amount"`
}

func (s *Server) createPayment(c echo.Context) error {
	if _, err := s.authenticate(c); err != nil {
		return err
	}

	var body createPaymentBody
	if err := c.Bind(&body); err != nil {
		return detail(c, http.StatusBadRequest, "invalid request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var order *model.Order
	for _, o := range s.orders {
		if o.ID == body.OrderID {
			order = o
			break
		}
	}
	if order == nil {
		return detail(c, http.StatusNotFound, "Order not found")
	}

	expires := time.Now().Add(24 * time.Hour)
	payment := &model.Payment{
		ID:             s.nextPaymentID,
		OrderID:        order.ID,
		PaymentMethod:  model.PaymentMethod(body.PaymentMethod),
		PaymentChannel: body.PaymentChannel,
		Amount:         body.Amount,
		Status:         model.PaymentStatusPending,
		ExpiredAt:      &expires,
		CreatedAt:      time.Now(),
	}
	s.nextPaymentID++

	switch payment.PaymentMethod {
	case model.PaymentMethodVA:
		va := fmt.Sprintf("8808%010d", payment.ID)
		payment.VANumber = &va
	case model.PaymentMethodQRIS:
		qr := fmt.Sprintf("https://payments.example.com/qris/%d.png", payment.ID)
		payment.QRCodeURL = &qr
	default:
		url := fmt.Sprintf("https://payments.example.com/redirect/%d", payment.ID)
		payment.PaymentURL = &url
	}

	s.payments = append(s.payments, payment)

	return c.JSON(http.StatusCreated, payment)
}

func (s *Server) paymentsByOrder(c echo.Context) error {
	if _, err := s.authenticate(c); err != nil {
		return err
	}

	orderID, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
	if err != nil {
		return detail(c, http.StatusBadRequest, "invalid order id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Most recent first: index 0 is the authoritative attempt.
	out := make([]*model.Payment, 0)
	for i := len(s.payments) - 1; i >= 0; i-- {
		if s.payments[i].OrderID == orderID {
			out = append(out, s.payments[i])
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) paymentByID(c echo.Context) error {
	if _, err := s.authenticate(c); err != nil {
		return err
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return detail(c, http.StatusBadRequest, "invalid payment id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if payment := s.findPayment(id); payment != nil {
		return c.JSON(http.StatusOK, payment)
	}
	return detail(c, http.StatusNotFound, "Payment not found")
}

func (s *Server) checkStatus(c echo.Context) error {
	if _, err := s.authenticate(c); err != nil {
		return err
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return detail(c, http.StatusBadRequest, "invalid payment id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payment := s.findPayment(id)
	if payment == nil {
		return detail(c, http.StatusNotFound, "Payment not found")
	}

	if payment.Status == model.PaymentStatusPending && s.opts.SucceedAfterChecks > 0 {
		s.checks[id]++
		if s.checks[id] >= s.opts.SucceedAfterChecks {
			now := time.Now()
			payment.Status = model.PaymentStatusSuccess
			payment.PaidAt = &now
			for _, order := range s.orders {
				if order.ID == payment.OrderID {
					order.Status = model.OrderStatusPaid
					s.activateSubscription(order)
				}
			}
		}
	}

	return c.JSON(http.StatusOK, payment)
}

// --- subscriptions ---

// activateSubscription starts a one-year subscription when an order is
// paid. Callers must hold s.mu.
func (s *Server) activateSubscription(order *model.Order) {
	now := time.Now()
	s.subscriptions = append(s.subscriptions, &model.Subscription{
		ID:          int64(len(s.subscriptions) + 1),
		UserID:      order.UserID,
		PackageName: order.ServiceName,
		PackageType: "standard",
		StartDate:   now,
		EndDate:     now.AddDate(1, 0, 0),
		Price:       order.TotalPrice,
		Status:      model.SubscriptionStatusActive,
		CreatedAt:   now,
	})
}

func (s *Server) mySubscriptions(c echo.Context) error {
	user, err := s.authenticate(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Subscription, 0)
	for _, sub := range s.subscriptions {
		if sub.UserID == user.ID {
			out = append(out, sub)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) expiringSubscriptions(c echo.Context) error {
	user, err := s.authenticate(c)
	if err != nil {
		return err
	}

	days := 30
	if raw := c.QueryParam("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			days = parsed
		}
	}
	cutoff := time.Now().AddDate(0, 0, days)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Subscription, 0)
	for _, sub := range s.subscriptions {
		if sub.UserID == user.ID && sub.Status == model.SubscriptionStatusActive && sub.EndDate.Before(cutoff) {
			out = append(out, sub)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) renewSubscription(c echo.Context) error {
	user, err := s.authenticate(c)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return detail(c, http.StatusBadRequest, "invalid subscription id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var sub *model.Subscription
	for _, candidate := range s.subscriptions {
		if candidate.ID == id && candidate.UserID == user.ID {
			sub = candidate
			break
		}
	}
	if sub == nil {
		return detail(c, http.StatusNotFound, "Subscription not found")
	}

	order := &model.Order{
		ID:          s.nextOrderID,
		UserID:      user.ID,
		OrderNumber: fmt.Sprintf("ORD-%s-%04d", time.Now().Format("20060102"), s.nextOrderID),
		ServiceName: sub.PackageName,
		Quantity:    1,
		UnitPrice:   sub.RenewalAmount(),
		TotalPrice:  sub.RenewalAmount(),
		Status:      model.OrderStatusPending,
		Notes:       fmt.Sprintf("Renewal for subscription #%d", sub.ID),
		CreatedAt:   time.Now(),
	}
	s.nextOrderID++
	s.orders = append(s.orders, order)

	return c.JSON(http.StatusCreated, echo.Map{
		"order_id": order.ID,
		"order":    order,
		"message":  "Renewal order created",
	})
}

func (s *Server) findPayment(id int64) *model.Payment {
	for _, p := range s.payments {
		if p.ID == id {
			return p
		}
	}
	return nil
}
