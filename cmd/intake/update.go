package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"intake/internal/api"
	"intake/internal/config"
)

type updateCmdOptions struct {
	name   string
	age    string
	gender string
	notes  string
	files  uploadFlags
}

func newUpdateCmd(cfg *config.Config, root *rootOptions) *cobra.Command {
	opts := &updateCmdOptions{}
	cmd := &cobra.Command{
		Use:   "update <token>",
		Short: "Update a record in place",
		Long: "Update a record in place. Only the fields passed as flags change; " +
			"attaching files of a category replaces that category's links.",
		Args: requireExactlyArgs(1, "token is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, cfg, opts, root, args[0])
		},
	}

	bindUpdateFlags(cmd, opts)
	return cmd
}

func bindUpdateFlags(cmd *cobra.Command, opts *updateCmdOptions) {
	cmd.Flags().StringVar(&opts.name, "name", "", "new name")
	cmd.Flags().StringVar(&opts.age, "age", "", "new age")
	cmd.Flags().StringVar(&opts.gender, "gender", "", "new gender")
	cmd.Flags().StringVar(&opts.notes, "notes", "", "new notes (empty clears)")
	bindUploadFlags(cmd.Flags(), &opts.files)
}

func runUpdate(cmd *cobra.Command, cfg *config.Config, opts *updateCmdOptions, root *rootOptions, token string) error {
	req, err := buildUpdateRequest(cmd, opts, token)
	if err != nil {
		return err
	}
	if !hasUpdateFields(req) {
		return errors.New("no fields to update")
	}

	return withClient(cfg, func(client *api.Client) error {
		resp, err := client.Update(cmd.Context(), req)
		if err != nil {
			return err
		}
		if root.structured() {
			return writeStructured(resp)
		}
		lines := []string{resp.Message}
		if resp.Data != nil {
			lines = append(lines, recordLines(*resp.Data)...)
		}
		return writePlain("%s\n", strings.Join(lines, "\n"))
	})
}

func buildUpdateRequest(cmd *cobra.Command, opts *updateCmdOptions, token string) (api.UpdateRequest, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return api.UpdateRequest{}, errors.New("token is required")
	}
	req := api.UpdateRequest{Token: token}
	if cmd.Flags().Changed("name") {
		req.Name = &opts.name
	}
	if cmd.Flags().Changed("age") {
		req.Age = &opts.age
	}
	if cmd.Flags().Changed("gender") {
		req.Gender = &opts.gender
	}
	if cmd.Flags().Changed("notes") {
		req.Notes = &opts.notes
	}

	uploads, err := opts.files.uploads()
	if err != nil {
		return api.UpdateRequest{}, err
	}
	req.Uploads = uploads
	return req, nil
}

func hasUpdateFields(req api.UpdateRequest) bool {
	return req.Name != nil ||
		req.Age != nil ||
		req.Gender != nil ||
		req.Notes != nil ||
		len(req.Uploads) > 0
}
