package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rl1809/retail-ops/internal/adapter/client"
	"github.com/rl1809/retail-ops/internal/core/domain"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Server string
	Role   string
}

func (o *RootOptions) client() *client.Client {
	return client.New(o.Server, domain.Role(o.Role))
}

// NewRootCommand creates the retailctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "retailctl",
		Short:         "retailctl - operate the retail core",
		Long:          "Command line driver for the retail core API and its demo data.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Role == "" {
				return nil
			}
			if _, err := domain.ParseRole(opts.Role); err != nil {
				return fmt.Errorf("invalid role %q: must be one of associate, merch, support", opts.Role)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Server, "server", "http://localhost:8080", "retail core base URL")
	cmd.PersistentFlags().StringVar(&opts.Role, "role", string(domain.RoleAssociate), "role asserted in X-DEMO-ROLE")

	cmd.AddCommand(NewGoldenCommand(opts))
	cmd.AddCommand(NewReserveCommand(opts))
	cmd.AddCommand(NewAuditCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))

	return cmd
}
