package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"intake/internal/api"
	"intake/internal/config"
)

type createCmdOptions struct {
	name     string
	age      string
	gender   string
	notes    string
	filePath string
	files    uploadFlags
}

// recordFile is the YAML shape accepted by create -f. Attachment entries are
// local file paths.
type recordFile struct {
	Name      string   `yaml:"name"`
	Age       string   `yaml:"age"`
	Gender    string   `yaml:"gender"`
	Notes     string   `yaml:"notes"`
	Photos    []string `yaml:"photos"`
	Videos    []string `yaml:"videos"`
	Documents []string `yaml:"documents"`
}

func newCreateCmd(cfg *config.Config, root *rootOptions) *cobra.Command {
	opts := &createCmdOptions{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a record and print its token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, cfg, opts, root)
		},
	}

	bindCreateFlags(cmd, opts)
	return cmd
}

func bindCreateFlags(cmd *cobra.Command, opts *createCmdOptions) {
	cmd.Flags().StringVar(&opts.name, "name", "", "patient name")
	cmd.Flags().StringVar(&opts.age, "age", "", "patient age")
	cmd.Flags().StringVar(&opts.gender, "gender", "", "patient gender")
	cmd.Flags().StringVar(&opts.notes, "notes", "", "free-text notes")
	cmd.Flags().StringVarP(&opts.filePath, "file", "f", "", "YAML record file")
	bindUploadFlags(cmd.Flags(), &opts.files)
}

func runCreate(cmd *cobra.Command, cfg *config.Config, opts *createCmdOptions, root *rootOptions) error {
	req, err := buildCreateRequest(cmd, opts)
	if err != nil {
		return err
	}

	return withClient(cfg, func(client *api.Client) error {
		resp, err := client.Create(cmd.Context(), req)
		if err != nil {
			return err
		}
		if root.structured() {
			return writeStructured(resp)
		}
		if resp.EditURL != nil && *resp.EditURL != "" {
			return writePlain("%s\n%s\n", resp.Token, *resp.EditURL)
		}
		return writePlain("%s\n", resp.Token)
	})
}

// buildCreateRequest merges the YAML file, if any, with flags. Flags that
// were set win over file values; attachments from both are sent.
func buildCreateRequest(cmd *cobra.Command, opts *createCmdOptions) (api.CreateRequest, error) {
	var file recordFile
	if opts.filePath != "" {
		loaded, err := loadRecordFile(opts.filePath)
		if err != nil {
			return api.CreateRequest{}, err
		}
		file = loaded
	}

	req := api.CreateRequest{Name: file.Name, Age: file.Age, Gender: file.Gender, Notes: file.Notes}
	for _, f := range []struct {
		flag  string
		dst   *string
		value string
	}{
		{"name", &req.Name, opts.name},
		{"age", &req.Age, opts.age},
		{"gender", &req.Gender, opts.gender},
		{"notes", &req.Notes, opts.notes},
	} {
		if cmd.Flags().Changed(f.flag) {
			*f.dst = f.value
		}
	}

	files := uploadFlags{
		photos:    append(append([]string(nil), file.Photos...), opts.files.photos...),
		videos:    append(append([]string(nil), file.Videos...), opts.files.videos...),
		documents: append(append([]string(nil), file.Documents...), opts.files.documents...),
	}
	uploads, err := files.uploads()
	if err != nil {
		return api.CreateRequest{}, err
	}
	req.Uploads = uploads
	return req, nil
}

func loadRecordFile(path string) (recordFile, error) {
	var file recordFile
	data, err := os.ReadFile(path)
	if err != nil {
		return file, err
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("parse %s: %w", path, err)
	}
	return file, nil
}
