package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/neointegratech/portal-client/internal/domain/model"
	"github.com/neointegratech/portal-client/internal/session"
	"github.com/neointegratech/portal-client/internal/workflow"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			input := session.LoginInput{Email: email, Password: password}
			if err := a.sessions.Login(cmd.Context(), input); err != nil {
				a.notifier.Error(a.sessions.Err())
				return err
			}

			user := a.sessions.User()
			a.notifier.Success(fmt.Sprintf("logged in as %s", user.Email))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var name, email, phone, company, password, confirm string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account (log in separately afterwards)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			input := session.RegisterInput{
				FullName:        name,
				Email:           email,
				Phone:           phone,
				CompanyName:     company,
				Password:        password,
				ConfirmPassword: confirm,
			}
			if err := a.sessions.Register(cmd.Context(), input); err != nil {
				a.notifier.Error(a.sessions.Err())
				return err
			}

			a.notifier.Success("account created, run `portal login` to sign in")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&company, "company", "", "company name")
	cmd.Flags().StringVar(&password, "password", "", "password (min 8 characters)")
	cmd.Flags().StringVar(&confirm, "confirm-password", "", "repeat the password")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	cmd.MarkFlagRequired("confirm-password")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			a.sessions.Logout()
			a.notifier.Info("logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			if err := a.requireLogin("/dashboard"); err != nil {
				return err
			}
			if err := a.sessions.FetchUser(cmd.Context()); err != nil {
				a.notifier.Error(a.sessions.Err())
				return err
			}

			user := a.sessions.User()
			fmt.Printf("%s <%s>\n", user.FullName, user.Email)
			if user.CompanyName != "" {
				fmt.Printf("company: %s\n", user.CompanyName)
			}
			return nil
		},
	}
}

func newServicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List the service catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			services, err := a.client.Services().List(cmd.Context())
			if err != nil {
				a.notifier.Error("failed to load services")
				return err
			}

			for _, svc := range services {
				fmt.Printf("%-14s %-24s %s / year\n", svc.Slug, svc.Name, model.FormatRupiah(svc.Price))
			}
			return nil
		},
	}
}

func newCheckoutCmd() *cobra.Command {
	var method, bank string

	cmd := &cobra.Command{
		Use:   "checkout <service-slug>",
		Short: "Order a service and create its payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			result, err := a.flow.Checkout(cmd.Context(), workflow.CheckoutInput{
				ServiceSlug: args[0],
				Method:      model.PaymentMethod(method),
				Channel:     bank,
				ReturnPath:  "/services",
			})
			if err != nil {
				return err
			}

			printCheckout(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&method, "method", "va", "payment method (va or qris)")
	cmd.Flags().StringVar(&bank, "bank", "bca", "bank channel for VA payments")
	return cmd
}

// printCheckout matches the instruction variant exhaustively; there is no
// silent fallthrough when the backend returns no artifact.
func printCheckout(result *workflow.CheckoutResult) {
	if result.Order != nil {
		fmt.Printf("order %s — %s\n", result.Order.OrderNumber, model.FormatRupiah(result.Order.TotalPrice))
	}

	switch instr := result.Instruction.(type) {
	case model.Redirect:
		fmt.Printf("complete payment at: %s\n", instr.URL)
	case model.VirtualAccount:
		bank := workflow.InstructionsFor(instr.Channel)
		fmt.Printf("\n%s Virtual Account\n", bank.Name)
		fmt.Printf("  %s\n\n", instr.Number)
		fmt.Println("How to pay:")
		for i, step := range bank.Steps {
			fmt.Printf("  %d. %s\n", i+1, step)
		}
		if result.Payment.ExpiredAt != nil {
			fmt.Printf("\npay before %s\n", result.Payment.ExpiredAt.Format("2006-01-02 15:04"))
		}
	case model.QRCode:
		fmt.Printf("scan the QRIS code: %s\n", instr.URL)
	case model.Deferred:
		fmt.Println("no payment instructions yet; run `portal orders` to initiate payment later")
	}
}

func newOrdersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			if err := a.requireLogin("/dashboard/orders"); err != nil {
				return err
			}

			orders, err := a.client.Orders().List(cmd.Context())
			if err != nil {
				a.notifier.Error("failed to load orders")
				return err
			}

			for _, order := range orders {
				fmt.Printf("%-18s %-24s %-12s %s\n",
					order.OrderNumber, order.ServiceName, order.Status, model.FormatRupiah(order.TotalPrice))
			}
			return nil
		},
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <order-number>",
		Short: "Poll a pending order's payment status until it settles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			if err := a.requireLogin("/dashboard/orders"); err != nil {
				return err
			}

			ctx := cmd.Context()
			order, err := a.client.Orders().ByNumber(ctx, args[0])
			if err != nil {
				a.notifier.Error("failed to load order")
				return err
			}

			poller, err := workflow.NewOrderPoller(ctx, a.client.Payments(), order, workflow.PollerOptions{
				Interval: a.cfg.Poll.Interval,
				Notifier: a.notifier,
				Logger:   a.logger,
				OnChange: func(p model.Payment) {
					fmt.Printf("payment %d is now %s\n", p.ID, p.Status)
				},
			})
			if err != nil {
				a.notifier.Error("failed to load payments")
				return err
			}
			if poller == nil {
				a.notifier.Info("nothing to watch: order is not awaiting payment")
				return nil
			}

			poller.Activate(ctx)
			defer poller.Deactivate()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

			select {
			case <-sig:
			case <-ctx.Done():
			case <-poller.Done():
			}
			return nil
		},
	}
}

func newSubscriptionsCmd() *cobra.Command {
	var expiringDays int

	cmd := &cobra.Command{
		Use:   "subscriptions",
		Short: "List your subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			if err := a.requireLogin("/dashboard/subscriptions"); err != nil {
				return err
			}

			var subs []model.Subscription
			if expiringDays > 0 {
				subs, err = a.client.Subscriptions().ExpiringSoon(cmd.Context(), expiringDays)
			} else {
				subs, err = a.client.Subscriptions().Mine(cmd.Context())
			}
			if err != nil {
				a.notifier.Error("failed to load subscriptions")
				return err
			}

			for _, sub := range subs {
				fmt.Printf("%-6d %-24s %-10s ends %s\n",
					sub.ID, sub.PackageName, sub.Status, sub.EndDate.Format("2006-01-02"))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&expiringDays, "expiring", 0, "only show subscriptions ending within N days")
	return cmd
}

func newRenewCmd() *cobra.Command {
	var bank string

	cmd := &cobra.Command{
		Use:   "renew <subscription-id>",
		Short: "Renew a subscription and create the renewal payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			subID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid subscription id %q", args[0])
			}

			subs, err := a.client.Subscriptions().Mine(cmd.Context())
			if err != nil {
				a.notifier.Error("failed to load subscriptions")
				return err
			}

			var target *model.Subscription
			for i := range subs {
				if subs[i].ID == subID {
					target = &subs[i]
					break
				}
			}
			if target == nil {
				return fmt.Errorf("subscription %d not found", subID)
			}

			result, err := a.flow.Renew(cmd.Context(), target, bank)
			if err != nil {
				return err
			}

			printCheckout(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&bank, "bank", "bca", "bank channel for the renewal VA")
	return cmd
}
