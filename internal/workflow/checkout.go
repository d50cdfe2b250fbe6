package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/neointegratech/portal-client/internal/api"
	"github.com/neointegratech/portal-client/internal/domain/model"
	"github.com/neointegratech/portal-client/internal/session"
	apperrors "github.com/neointegratech/portal-client/pkg/errors"
)

// Orders is the slice of the orders collaborator the workflow needs.
type Orders interface {
	Create(ctx context.Context, req api.CreateOrderRequest) (*model.Order, error)
}

// Payments is the slice of the payments collaborator the workflow needs.
type Payments interface {
	Create(ctx context.Context, req api.CreatePaymentRequest) (*model.Payment, error)
	ByOrder(ctx context.Context, orderID int64) ([]model.Payment, error)
	CheckStatus(ctx context.Context, paymentID int64) (*model.Payment, error)
}

// Subscriptions is the slice of the subscriptions collaborator the renewal
// flow needs.
type Subscriptions interface {
	Renew(ctx context.Context, subscriptionID int64) (*api.RenewResponse, error)
}

// Workflow orchestrates order creation, payment creation and instruction
// presentation. Overlapping invocations are treated as independent; the
// workflow does not deduplicate concurrent checkouts.
type Workflow struct {
	sessions *session.Manager
	orders   Orders
	payments Payments
	subs     Subscriptions
	notifier Notifier
	logger   *zap.Logger
	validate *validator.Validate
}

func New(sessions *session.Manager, orders Orders, payments Payments, subs Subscriptions, notifier Notifier, logger *zap.Logger) *Workflow {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{
		sessions: sessions,
		orders:   orders,
		payments: payments,
		subs:     subs,
		notifier: notifier,
		logger:   logger,
		validate: validator.New(),
	}
}

// CheckoutInput selects what to buy and how to pay.
type CheckoutInput struct {
	ServiceSlug string              `validate:"required"`
	Method      model.PaymentMethod `validate:"omitempty,oneof=va qris"`
	// Channel is the bank code for VA payments.
	Channel string
	// ReturnPath is where the user should land again after a forced
	// login, defaults to /services.
	ReturnPath string
}

// CheckoutResult is a completed checkout: the created order, its payment
// and the actionable instruction variant.
type CheckoutResult struct {
	Order       *model.Order
	Payment     *model.Payment
	Instruction model.Instruction
}

// Checkout drives one order-and-pay invocation. Order creation strictly
// precedes payment creation. Expected failures return typed errors and
// surface exactly one notification; a 401 mid-flow comes back as a
// *session.LoginRedirect while the created order stays pending.
func (w *Workflow) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	returnPath := input.ReturnPath
	if returnPath == "" {
		returnPath = "/services"
	}

	if err := w.requireAuth(returnPath); err != nil {
		return nil, err
	}

	input.ServiceSlug = strings.TrimSpace(input.ServiceSlug)
	if input.Method == "" {
		input.Method = model.PaymentMethodVA
	}
	if err := w.validate.Struct(input); err != nil {
		w.notifier.Error("choose a service first")
		return nil, apperrors.NewAppError(apperrors.ErrInvalidArgument, "service slug is required", err)
	}

	order, err := w.orders.Create(ctx, api.CreateOrderRequest{
		ServiceSlug: input.ServiceSlug,
		Quantity:    1,
		Notes:       fmt.Sprintf("Order via customer portal - %s", input.ServiceSlug),
	})
	if err != nil {
		return nil, w.checkoutFailure(err, returnPath)
	}

	w.logger.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("service_slug", input.ServiceSlug))

	req := api.CreatePaymentRequest{
		OrderID:       order.ID,
		PaymentMethod: input.Method,
		Amount:        order.TotalPrice,
	}
	if input.Method == model.PaymentMethodVA {
		req.PaymentChannel = input.Channel
	}

	payment, err := w.payments.Create(ctx, req)
	if err != nil {
		// The order was created and stays pending; payment can be
		// retried from the order list.
		return nil, w.checkoutFailure(err, returnPath)
	}

	w.logger.Info("payment created",
		zap.Int64("payment_id", payment.ID),
		zap.Int64("order_id", payment.OrderID),
		zap.String("status", string(payment.Status)))

	result := &CheckoutResult{
		Order:       order,
		Payment:     payment,
		Instruction: payment.Instruction(),
	}
	w.announce(result)
	return result, nil
}

// Renew creates a renewal order for a subscription and a payment against
// it, with the same auth gating and 401 handling as Checkout.
func (w *Workflow) Renew(ctx context.Context, sub *model.Subscription, channel string) (*CheckoutResult, error) {
	const returnPath = "/dashboard/subscriptions"

	if err := w.requireAuth(returnPath); err != nil {
		return nil, err
	}
	if sub == nil {
		w.notifier.Error("no subscription selected")
		return nil, apperrors.NewAppError(apperrors.ErrInvalidArgument, "subscription is required", nil)
	}

	resp, err := w.subs.Renew(ctx, sub.ID)
	if err != nil {
		return nil, w.checkoutFailure(err, returnPath)
	}

	amount := sub.RenewalAmount()
	order := resp.Order
	if order != nil && !order.TotalPrice.IsZero() {
		amount = order.TotalPrice
	}

	payment, err := w.payments.Create(ctx, api.CreatePaymentRequest{
		OrderID:        resp.OrderID,
		PaymentMethod:  model.PaymentMethodVA,
		PaymentChannel: channel,
		Amount:         amount,
	})
	if err != nil {
		return nil, w.checkoutFailure(err, returnPath)
	}

	w.logger.Info("renewal payment created",
		zap.Int64("subscription_id", sub.ID),
		zap.Int64("order_id", resp.OrderID),
		zap.Int64("payment_id", payment.ID))

	result := &CheckoutResult{
		Order:       order,
		Payment:     payment,
		Instruction: payment.Instruction(),
	}
	w.announce(result)
	return result, nil
}

// requireAuth re-checks the persisted token, not only the in-memory flag,
// so a checkout issued before rehydration finishes is not bounced.
func (w *Workflow) requireAuth(returnPath string) error {
	if w.sessions.Authenticated() || w.sessions.PersistedToken() != "" {
		return nil
	}
	w.notifier.Error("please log in first")
	return &session.LoginRedirect{Target: returnPath}
}

func (w *Workflow) checkoutFailure(err error, returnPath string) error {
	if apperrors.IsUnauthenticated(err) {
		w.notifier.Error("your session has expired, please log in again")
		return &session.LoginRedirect{Target: returnPath}
	}

	w.notifier.Error(failureMessage(err))
	return err
}

func (w *Workflow) announce(result *CheckoutResult) {
	amount := model.FormatRupiah(result.Payment.Amount)

	switch instr := result.Instruction.(type) {
	case model.Redirect:
		w.notifier.Success(fmt.Sprintf("order created, complete the %s payment on the payment page", amount))
	case model.VirtualAccount:
		bank := InstructionsFor(instr.Channel)
		w.notifier.Success(fmt.Sprintf("order created, transfer %s to %s virtual account %s", amount, bank.Name, instr.Number))
	case model.QRCode:
		w.notifier.Success(fmt.Sprintf("order created, scan the QRIS code to pay %s", amount))
	case model.Deferred:
		w.notifier.Info("order created, payment can be initiated later from your orders")
	}
}

// failureMessage extracts the collaborator's structured message when there
// is one, otherwise falls back to a generic line.
func failureMessage(err error) string {
	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) && appErr.Message() != "" {
		return appErr.Message()
	}
	return "checkout failed"
}
