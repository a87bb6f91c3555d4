package cli

import (
	"github.com/spf13/cobra"
)

func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "audit",
		Short:         "Print the audit log, oldest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := rootOpts.client().AuditLog(cmd.Context())
			if err != nil {
				return WrapExitError(GetExitCodeFor(err), "audit log failed", err)
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
}
