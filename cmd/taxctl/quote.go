package main

import (
	"fmt"

	"github.com/google/uuid"
	taxapp "github.com/mestresdocafe/backend/internal/application/tax"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type quoteFlags struct {
	product  string
	customer string
	ncm      string
	price    string
	quantity string
	from     string
	to       string
}

func (f quoteFlags) request() (taxapp.QuoteRequest, error) {
	req := taxapp.QuoteRequest{
		NCMCode:          f.ncm,
		OriginState:      f.from,
		DestinationState: f.to,
	}
	qty, err := decimal.NewFromString(f.quantity)
	if err != nil {
		return req, fmt.Errorf("invalid --quantity %q: %w", f.quantity, err)
	}
	req.Quantity = qty
	if f.price != "" {
		price, err := decimal.NewFromString(f.price)
		if err != nil {
			return req, fmt.Errorf("invalid --price %q: %w", f.price, err)
		}
		req.UnitPrice = &price
	}
	if f.product != "" {
		id, err := uuid.Parse(f.product)
		if err != nil {
			return req, fmt.Errorf("invalid --product %q: %w", f.product, err)
		}
		req.ProductID = &id
	}
	if f.customer != "" {
		id, err := uuid.Parse(f.customer)
		if err != nil {
			return req, fmt.Errorf("invalid --customer %q: %w", f.customer, err)
		}
		req.CustomerID = &id
	}
	return req, nil
}

func quoteCmd(opts *options) *cobra.Command {
	var f quoteFlags

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Calculate the taxes of one line without saving anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			req, err := f.request()
			if err != nil {
				return err
			}
			return withServices(cmd.Context(), opts, func(svc *services, _ *zap.Logger) error {
				result, err := svc.calculation.QuoteLine(cmd.Context(), tenantID, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().StringVar(&f.product, "product", "", "product id (uses its tax configuration)")
	cmd.Flags().StringVar(&f.customer, "customer", "", "customer id (applies exemptions and address)")
	cmd.Flags().StringVar(&f.ncm, "ncm", "", "NCM code when no product is given")
	cmd.Flags().StringVar(&f.price, "price", "", "unit price (default: product price)")
	cmd.Flags().StringVar(&f.quantity, "quantity", "1", "quantity")
	cmd.Flags().StringVar(&f.from, "from", "", "origin state (default: tax.origin_state)")
	cmd.Flags().StringVar(&f.to, "to", "", "destination state (default: customer state)")
	return cmd
}

func complianceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "compliance ORDER_ID",
		Short: "Check an order's stored tax lines for compliance issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			orderID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid order id %q: %w", args[0], err)
			}
			return withServices(cmd.Context(), opts, func(svc *services, _ *zap.Logger) error {
				report, err := svc.calculation.CheckCompliance(cmd.Context(), tenantID, orderID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
}
