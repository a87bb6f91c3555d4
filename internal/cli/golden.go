package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rl1809/retail-ops/internal/adapter/client"
	"github.com/rl1809/retail-ops/internal/adapter/handler"
	"github.com/rl1809/retail-ops/internal/core/domain"
)

type GoldenOptions struct {
	SKU         string
	StoreID     string
	RadiusMiles float64
	Category    string
	Severity    string
}

// GoldenResult is what the golden path prints, one section per step.
type GoldenResult struct {
	InventoryLookup *handler.LookupResponse   `json:"inventory_lookup"`
	ReserveItem     *handler.ReserveResponse  `json:"reserve_item"`
	CreateTransfer  *handler.TransferResponse `json:"create_transfer"`
	CreateTicket    *handler.TicketResponse   `json:"create_ticket"`
}

const goldenTicketDescription = "Golden path demo ticket: recurring POS synchronization failure during peak traffic."

func NewGoldenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GoldenOptions{}

	cmd := &cobra.Command{
		Use:   "golden",
		Short: "Run the lookup, reserve, transfer and ticket demo flow",
		Long: `Run the demo flow against a running server:

  1. look up the SKU around the query store (associate)
  2. reserve one unit at the nearest other store with stock available
  3. transfer one unit from the nearest other store with stock on hand (merch)
  4. open a support ticket for the query store (support)

Each step is printed as JSON.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(rootOpts.Server, domain.RoleAssociate)
			result, err := RunGolden(cmd.Context(), c, *opts)
			if err != nil {
				return WrapExitError(GetExitCodeFor(err), "golden path failed", err)
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&opts.SKU, "sku", "AST-LIN-BLZ-SND-M", "SKU to look up")
	cmd.Flags().StringVar(&opts.StoreID, "store", "ST001", "query store id")
	cmd.Flags().Float64Var(&opts.RadiusMiles, "radius", 25, "lookup radius in miles")
	cmd.Flags().StringVar(&opts.Category, "category", "POS Sync Failure", "ticket category")
	cmd.Flags().StringVar(&opts.Severity, "severity", "high", "ticket severity")

	return cmd
}

// RunGolden drives the demo flow. The client's own role is ignored; each step
// asserts the role that owns it.
func RunGolden(ctx context.Context, c *client.Client, opts GoldenOptions) (*GoldenResult, error) {
	associate := c.WithRole(domain.RoleAssociate)
	merch := c.WithRole(domain.RoleMerch)
	support := c.WithRole(domain.RoleSupport)
	out := &GoldenResult{}

	lookup, err := associate.Lookup(ctx, opts.SKU, opts.StoreID, opts.RadiusMiles)
	if err != nil {
		return nil, fmt.Errorf("inventory lookup: %w", err)
	}
	out.InventoryLookup = lookup

	reserveStore, err := pickStore(lookup.Stores, opts.StoreID, func(s handler.NearbyStore) bool { return s.Available >= 1 })
	if err != nil {
		return nil, fmt.Errorf("no nearby store with available stock for reserve: %w", err)
	}
	out.ReserveItem, err = associate.Reserve(ctx, handler.ReserveRequest{
		StoreID: reserveStore, SKU: opts.SKU, Qty: 1, Confirm: true,
	})
	if err != nil {
		return nil, fmt.Errorf("reserve item: %w", err)
	}

	// Re-read after the reservation so the transfer source reflects it.
	after, err := merch.Lookup(ctx, opts.SKU, opts.StoreID, opts.RadiusMiles)
	if err != nil {
		return nil, fmt.Errorf("inventory lookup: %w", err)
	}
	source, err := pickStore(after.Stores, opts.StoreID, func(s handler.NearbyStore) bool { return s.OnHand >= 1 })
	if err != nil {
		return nil, fmt.Errorf("no nearby store with on_hand inventory for transfer: %w", err)
	}
	out.CreateTransfer, err = merch.Transfer(ctx, handler.TransferRequest{
		FromStore: source, ToStore: opts.StoreID, SKU: opts.SKU, Qty: 1, Confirm: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create transfer: %w", err)
	}

	out.CreateTicket, err = support.CreateTicket(ctx, handler.TicketRequest{
		StoreID:     opts.StoreID,
		Category:    opts.Category,
		Severity:    opts.Severity,
		Description: goldenTicketDescription,
	})
	if err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	return out, nil
}

var errNoCandidate = errors.New("no candidate store")

// pickStore returns the first store other than the query store that passes ok.
// Stores arrive nearest first.
func pickStore(stores []handler.NearbyStore, queryStore string, ok func(handler.NearbyStore) bool) (string, error) {
	for _, s := range stores {
		if s.StoreID == queryStore {
			continue
		}
		if ok(s) {
			return s.StoreID, nil
		}
	}
	return "", errNoCandidate
}

// GetExitCodeFor maps API rejections to ExitFailure and anything else to ExitCommandError.
func GetExitCodeFor(err error) int {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) || errors.Is(err, errNoCandidate) {
		return ExitFailure
	}
	return ExitCommandError
}
