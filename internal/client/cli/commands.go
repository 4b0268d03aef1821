package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dmitrijs2005/bookkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/bookkeeper/internal/client/client"
	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/filex"
	"github.com/dmitrijs2005/bookkeeper/internal/netx"
	"github.com/spf13/cobra"
)

func (a *App) registerCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			username, err := a.username()
			if err != nil {
				return err
			}

			password, err := getPassword("Password", a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			repeat, err := getPassword("Repeat password", a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(repeat)

			if !bytes.Equal(password, repeat) {
				return errors.New("passwords do not match")
			}

			ctx, cancel, c, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cancel()
			defer c.Close()

			id, err := c.Register(ctx, username, email, string(password))
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}

			fmt.Fprintf(a.out, "Registered %s (id %d)\n", username, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "contact email")
	return cmd
}

func (a *App) exportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download a backup of the whole account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, done, c, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			res, err := c.Export(ctx)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			var doc bytes.Buffer
			if err := json.Indent(&doc, res.Document, "", "  "); err != nil {
				return fmt.Errorf("export: %w", err)
			}
			doc.WriteByte('\n')

			if output == "" || output == "-" {
				_, err := a.out.Write(doc.Bytes())
				return err
			}

			if err := filex.WriteFileAtomic(output, doc.Bytes(), 0o600); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Saved %s (%d bytes): %s\n", output, doc.Len(), res.Summary)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write the backup to (stdout when empty)")
	return cmd
}

func (a *App) importCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "import <file|url|->",
		Short: "Restore a backup into the account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			document, err := a.readDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			ctx, done, c, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			res, err := c.Import(ctx, mode, document)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			a.printImport(res)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "merge", "merge keeps existing data, replace deletes it first")
	return cmd
}

func (a *App) archiveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Store a backup in the server-side archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, done, c, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			res, err := c.Archive(ctx)
			if err != nil {
				return fmt.Errorf("archive: %w", err)
			}

			fmt.Fprintf(a.out, "Archived %d bytes\nKey: %s\n", res.Size, res.Key)
			if res.URL != "" {
				fmt.Fprintf(a.out, "Download: %s\n", res.URL)
			}
			return nil
		},
	}
}

func (a *App) restoreCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "restore <key>",
		Short: "Restore an archived backup into the account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, done, c, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			res, err := c.Restore(ctx, args[0], mode)
			if err != nil {
				return fmt.Errorf("restore: %w", err)
			}
			a.printImport(res)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "merge", "merge keeps existing data, replace deletes it first")
	return cmd
}

func (a *App) eraseCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "erase",
		Short: "Delete the account and everything it owns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			username, err := a.username()
			if err != nil {
				return err
			}

			if !yes {
				answer, err := getSimpleText(a.reader, fmt.Sprintf("This deletes %s permanently. Type the username to confirm", username), a.out)
				if err != nil {
					return err
				}
				if answer != username {
					return errors.New("erase cancelled")
				}
			}

			password, err := getPassword("Password", a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			ctx, done, c, err := a.open(cmd.Context(), username, string(password))
			if err != nil {
				return err
			}
			defer done()

			sum, err := c.Erase(ctx, string(password))
			if err != nil {
				return fmt.Errorf("erase: %w", err)
			}

			fmt.Fprintf(a.out, "Erased %s\n", sum.Username)
			a.printCounts(sum.Counts)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (a *App) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			buildinfo.PrintBuildData(a.out)
		},
	}
}

// readDocument reads a backup file. "-" reads the whole input stream and
// an http(s) URL, such as a presigned archive link, is downloaded.
func (a *App) readDocument(ctx context.Context, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(a.reader)
	}
	if netx.IsURL(path) {
		b, err := netx.Download(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("download: %w", err)
		}
		return b, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

func (a *App) printImport(res *client.ImportResult) {
	fmt.Fprintf(a.out, "Imported (%s)\n", res.Mode)
	counts := make(map[string]int64, len(res.Counts))
	for k, v := range res.Counts {
		counts[k] = int64(v)
	}
	a.printCounts(counts)
	if len(res.Purged) > 0 {
		fmt.Fprintln(a.out, "Purged before import:")
		a.printCounts(res.Purged)
	}
	if len(res.Errors) > 0 {
		fmt.Fprintf(a.out, "%d rows skipped:\n", len(res.Errors))
		for _, e := range res.Errors {
			fmt.Fprintf(a.out, "  %s\n", e)
		}
	}
}

func (a *App) printCounts(counts map[string]int64) {
	names := make([]string, 0, len(counts))
	for k := range counts {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(a.out, "  %-24s %d\n", k, counts[k])
	}
}
