// Package querycompilercli implements the querycompiler command line: compiling clauses,
// inspecting entity metadata, building expiry plans and probing a running service.
package querycompilercli

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/mogudian/elasticsearch-orm/internal/common"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/metadata"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath   string
	MetadataPath string
	SchemaPath   string
	Format       string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the querycompiler CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "querycompiler",
		Short: "Compile SQL clauses into document-search query plans",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "service config file")
	cmd.PersistentFlags().StringVar(&opts.MetadataPath, "metadata", "", "entity metadata file, overrides compiler.metadataPath")
	cmd.PersistentFlags().StringVar(&opts.SchemaPath, "schema", "", "JSON schema for the metadata file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "json", "output format (json|text)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewEntitiesCommand(opts))
	cmd.AddCommand(NewExpiryCommand(opts))
	cmd.AddCommand(NewHealthCommand())

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// config loads the service configuration, or returns defaults when no file was given and
// the metadata path comes from the flag.
func (o *RootOptions) config() (*common.Config, error) {
	cfg, err := common.LoadConfig(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	if o.MetadataPath != "" {
		cfg.Compiler.MetadataPath = o.MetadataPath
	}
	if o.SchemaPath != "" {
		cfg.Compiler.SchemaPath = o.SchemaPath
	}
	return cfg, nil
}

// registry loads the entity metadata named by --metadata, or by the config file.
func (o *RootOptions) registry() (*metadata.Registry, string, error) {
	if o.MetadataPath != "" {
		reg, err := metadata.LoadFile(o.MetadataPath, o.SchemaPath)
		return reg, "", err
	}
	cfg, err := o.config()
	if err != nil {
		return nil, "", err
	}
	reg, err := metadata.LoadFile(cfg.Compiler.MetadataPath, cfg.Compiler.SchemaPath)
	return reg, cfg.Compiler.DateLayout, err
}

func writeJSON(w io.Writer, v any) error {
	var json = jsoniter.ConfigCompatibleWithStandardLibrary
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
