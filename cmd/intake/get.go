package main

import (
	"github.com/spf13/cobra"

	"intake/internal/api"
	"intake/internal/config"
)

func newGetCmd(cfg *config.Config, root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <token>",
		Short: "Show the record addressed by a token",
		Args:  requireExactlyArgs(1, "token is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if root.structured() {
					return writeStructured(resp)
				}
				if resp.Data == nil {
					return writePlain("%s\n", resp.Message)
				}
				return writeRecordDetail(*resp.Data)
			})
		},
	}
}
