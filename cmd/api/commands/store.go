package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mobilize/core/internal/adapters/repository"
	"github.com/mobilize/core/internal/infrastructure/config"
	"github.com/mobilize/core/internal/infrastructure/jsonstore"
	"github.com/mobilize/core/internal/infrastructure/logger"
)

// NewStoreCommand creates the store maintenance commands
func NewStoreCommand() *cobra.Command {
	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "JSON store maintenance commands",
		Long:  "Create, inspect and export the JSON document backing the API",
	}

	storeCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the store file with its default areas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), afero.NewOsFs(), false, func(store *jsonstore.Store) error {
				st := store.Status()
				fmt.Fprintf(cmd.OutOrStdout(), "Store ready at %s (%d areas)\n", st.Path, st.Areas)
				return nil
			})
		},
	})

	storeCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Load the store and report its areas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), afero.NewOsFs(), true, func(store *jsonstore.Store) error {
				return printAreas(cmd.OutOrStdout(), store)
			})
		},
	})

	dumpCmd := &cobra.Command{
		Use:   "dump [area]",
		Short: "Print the whole store or one area",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported format %q, use json or yaml", format)
			}

			return withStore(cmd.Context(), afero.NewOsFs(), true, func(store *jsonstore.Store) error {
				var data []byte
				if len(args) == 1 {
					raw, ok := store.Raw(args[0])
					if !ok {
						return fmt.Errorf("area %q not found", args[0])
					}
					data = raw
				} else {
					snapshot, err := store.Snapshot()
					if err != nil {
						return err
					}
					data = snapshot
				}
				return writeDocument(cmd.OutOrStdout(), data, format)
			})
		},
	}
	dumpCmd.Flags().String("format", "json", "Output format (json, yaml)")
	storeCmd.AddCommand(dumpCmd)

	return storeCmd
}

// withStore opens the configured store, runs fn and closes the store. A read-only
// open leaves the file exactly as found and requires it to exist.
func withStore(ctx context.Context, fs afero.Fs, readOnly bool, fn func(*jsonstore.Store) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := jsonstore.Open(ctx, cfg.Store.Path, jsonstore.Options{
		Fs:       fs,
		FileMode: cfg.Store.FileMode,
		Skeleton: repository.Skeleton,
		ReadOnly: readOnly,
		Logger:   logger.NewNop(),
	})
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("store file %s does not exist, run `store init` first", cfg.Store.Path)
	}
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	fnErr := fn(store)
	if err := store.Close(ctx); err != nil && fnErr == nil {
		fnErr = err
	}
	return fnErr
}

func printAreas(w io.Writer, store *jsonstore.Store) error {
	st := store.Status()
	fmt.Fprintf(w, "Store %s: %d areas, version %d\n", st.Path, st.Areas, st.Version)

	for _, area := range store.Areas() {
		raw, _ := store.Raw(area)

		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil {
			fmt.Fprintf(w, "  %-22s %6d bytes  %d items\n", area, len(raw), len(items))
			continue
		}
		fmt.Fprintf(w, "  %-22s %6d bytes  object\n", area, len(raw))
	}
	return nil
}

func writeDocument(w io.Writer, data []byte, format string) error {
	if format == "json" {
		_, err := fmt.Fprintln(w, string(data))
		return err
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode store document: %w", err)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}
