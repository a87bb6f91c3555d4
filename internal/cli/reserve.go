package cli

import (
	"github.com/spf13/cobra"

	"github.com/rl1809/retail-ops/internal/adapter/handler"
)

type ReserveOptions struct {
	StoreID string
	SKU     string
	Qty     int
	Confirm bool
	Token   string
	Yes     bool
}

func NewReserveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReserveOptions{}

	cmd := &cobra.Command{
		Use:   "reserve",
		Short: "Preview or apply a reservation",
		Long: `Reserve units of a SKU at a store.

Without --confirm or --token the server only previews and returns a
confirm_token. --token redeems a previously issued token. --yes previews
and immediately redeems the returned token in one step.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := rootOpts.client()
			req := handler.ReserveRequest{
				StoreID:      opts.StoreID,
				SKU:          opts.SKU,
				Qty:          opts.Qty,
				Confirm:      opts.Confirm,
				ConfirmToken: opts.Token,
			}

			resp, err := c.Reserve(cmd.Context(), req)
			if err != nil {
				return WrapExitError(GetExitCodeFor(err), "reserve failed", err)
			}
			if opts.Yes && resp.Status == handler.StatusPreview {
				req.ConfirmToken = resp.ConfirmToken
				resp, err = c.Reserve(cmd.Context(), req)
				if err != nil {
					return WrapExitError(GetExitCodeFor(err), "reserve failed", err)
				}
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&opts.StoreID, "store", "", "store id")
	cmd.Flags().StringVar(&opts.SKU, "sku", "", "SKU to reserve")
	cmd.Flags().IntVar(&opts.Qty, "qty", 1, "units to reserve (1-20)")
	cmd.Flags().BoolVar(&opts.Confirm, "confirm", false, "apply without a confirmation token")
	cmd.Flags().StringVar(&opts.Token, "token", "", "confirm_token from an earlier preview")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "preview, then redeem the returned token")
	_ = cmd.MarkFlagRequired("store")
	_ = cmd.MarkFlagRequired("sku")

	return cmd
}
