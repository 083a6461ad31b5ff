package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/fileflow/fileflow/internal/auth"
	"github.com/fileflow/fileflow/internal/logging"
	"github.com/fileflow/fileflow/pkg/protocol"
)

const defaultUploadConcurrency = 4

func (a *app) uploadCmd() *cobra.Command {
	var (
		parent      string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "upload <files...>",
		Short: "Upload files, several at a time",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if concurrency < 1 {
				concurrency = 1
			}
			if parent == "" {
				parent = a.lastFolder()
			}

			results := make([]*protocol.UploadResponse, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(concurrency)
			for i, path := range args {
				g.Go(func() error {
					f, err := os.Open(path)
					if err != nil {
						return err
					}
					defer f.Close()

					resp, err := a.client.Upload(ctx, filepath.Base(path), f, parent)
					if err != nil {
						return fmt.Errorf("upload %s: %w", path, err)
					}
					a.log.Debug("uploaded", zap.String("path", path), zap.String("id", resp.ID))
					results[i] = resp
					return nil
				})
			}
			err := g.Wait()

			var done []*protocol.UploadResponse
			for _, r := range results {
				if r != nil {
					done = append(done, r)
				}
			}
			if a.output != outputTable {
				if _, encErr := a.encode(done); encErr != nil {
					return encErr
				}
				return err
			}
			for _, r := range done {
				fmt.Fprintf(a.out, "Uploaded %s (%s) as %s\n", r.Name, humanize.Bytes(uint64(max(r.Size, 0))), r.ID)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "Target folder ID (default: last listed folder)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", defaultUploadConcurrency, "Uploads in flight at once")
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save an access token for later commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				var err error
				if token, err = a.readToken(); err != nil {
					return err
				}
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return fmt.Errorf("no token given")
			}

			tf := auth.NewTokenFile(token, a.cfg.APIURL)
			if tf.IsExpired(0) {
				return fmt.Errorf("token expired %s", humanize.Time(tf.ExpiresAt))
			}
			path := auth.DefaultTokenPath()
			if err := auth.SaveToken(path, tf); err != nil {
				return fmt.Errorf("save token: %w", err)
			}

			if tf.ExpiresAt.IsZero() {
				fmt.Fprintf(a.out, "Token saved to %s\n", path)
			} else {
				fmt.Fprintf(a.out, "Token saved to %s (expires %s)\n", path, humanize.Time(tf.ExpiresAt))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Access token (prompted for when omitted)")
	return cmd
}

// readToken prompts without echo on a terminal and reads a line otherwise.
func (a *app) readToken() (string, error) {
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(a.out, "Token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.out)
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read token: %w", err)
	}
	return line, nil
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the saved access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := auth.DefaultTokenPath()
			if err := auth.DeleteToken(path); err != nil {
				a.log.Warn("failed to delete token file", logging.Err(err))
				return fmt.Errorf("delete token: %w", err)
			}
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		},
	}
}
