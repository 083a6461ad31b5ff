package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fileflow/fileflow/internal/logging"
	"github.com/fileflow/fileflow/internal/navigator"
	"github.com/fileflow/fileflow/internal/prefs"
	"github.com/fileflow/fileflow/pkg/client"
	"github.com/fileflow/fileflow/pkg/models"
	"github.com/fileflow/fileflow/pkg/tree"
)

// showFolder prints the store's current folder and remembers it for
// cd-path and mkdir.
func (a *app) showFolder() error {
	st := a.store.Snapshot()
	if a.prefs.LastFolder != st.CurrentFolderID {
		a.prefs.LastFolder = st.CurrentFolderID
		a.savePrefs()
	}
	return a.printFolder(st)
}

func (a *app) lastFolder() string {
	if a.prefs.LastFolder != "" {
		return a.prefs.LastFolder
	}
	return models.RootID
}

func (a *app) lsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls [folder-id-or-path]",
		Short: "List a folder (the root by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := models.RootID
			if len(args) == 1 {
				target = args[0]
			}
			if err := a.store.NavigateToFolder(cmd.Context(), target); err != nil {
				return a.navError(err)
			}
			return a.showFolder()
		},
	}
	cmd.Flags().BoolVar(&a.all, "all", false, "Show every entry instead of one page")
	return cmd
}

func (a *app) cdPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cd-path <index>",
		Short: "Open a breadcrumb of the last listed folder by index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			ctx := cmd.Context()
			if err := a.store.NavigateToFolder(ctx, a.lastFolder()); err != nil {
				return a.navError(err)
			}
			if err := a.store.NavigateToPathIndex(ctx, i); err != nil {
				if errors.Is(err, navigator.ErrPathIndex) {
					return err
				}
				return a.navError(err)
			}
			return a.showFolder()
		},
	}
	cmd.Flags().BoolVar(&a.all, "all", false, "Show every entry instead of one page")
	return cmd
}

func (a *app) mkdirCmd() *cobra.Command {
	var parent string
	cmd := &cobra.Command{
		Use:   "mkdir <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if parent == "" {
				parent = a.lastFolder()
			}
			if err := a.store.NavigateToFolder(ctx, parent); err != nil {
				return a.navError(err)
			}
			st := a.store.Snapshot()
			if !tree.IsRoot(parent) && st.AtRoot() {
				return &displayError{msg: navigator.MsgNotFound, err: client.ErrNotFound}
			}
			folder, err := a.store.CreateFolder(ctx, args[0], st.CurrentFolderID)
			if err != nil {
				return err
			}
			return a.printResult(folder, "Created folder %s (%s)", folder.Name, folder.ID)
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "Parent folder ID or path (default: last listed folder)")
	return cmd
}

func (a *app) renameCmd() *cobra.Command {
	var folder bool
	cmd := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a file or folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rename := a.client.RenameFile
			if folder {
				rename = a.client.RenameFolder
			}
			item, err := rename(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return a.printResult(item, "Renamed %s to %s", args[0], args[1])
		},
	}
	cmd.Flags().BoolVar(&folder, "folder", false, "The item is a folder")
	return cmd
}

func (a *app) mvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv <id> <target-folder-id>",
		Short: "Move an item into another folder (use root for the top level)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.MoveItem(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			return a.printResult(map[string]string{"id": args[0], "targetFolderId": args[1]},
				"Moved %s to %s", args[0], args[1])
		},
	}
}

func (a *app) rmCmd() *cobra.Command {
	var folder, permanent bool
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Move an item to the trash, or delete it for good with --permanent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var del func(context.Context, string) error
			switch {
			case folder && permanent:
				del = a.client.DeleteFolderPermanently
			case folder:
				del = a.client.TrashFolder
			case permanent:
				del = a.client.DeleteFilePermanently
			default:
				del = a.client.TrashFile
			}
			if err := del(cmd.Context(), args[0]); err != nil {
				return err
			}
			verb := "Moved to trash"
			if permanent {
				verb = "Deleted"
			}
			return a.printResult(map[string]any{"id": args[0], "permanent": permanent}, "%s: %s", verb, args[0])
		},
	}
	cmd.Flags().BoolVar(&folder, "folder", false, "The item is a folder")
	cmd.Flags().BoolVar(&permanent, "permanent", false, "Delete permanently instead of trashing")
	return cmd
}

func (a *app) restoreCmd() *cobra.Command {
	var folder bool
	cmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore an item from the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			restore := a.client.RestoreFile
			if folder {
				restore = a.client.RestoreFolder
			}
			if err := restore(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.printResult(map[string]string{"id": args[0]}, "Restored %s", args[0])
		},
	}
	cmd.Flags().BoolVar(&folder, "folder", false, "The item is a folder")
	return cmd
}

func (a *app) restoreAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore-all",
		Short: "Restore everything in the trash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.client.RestoreAll(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(resp, "Restored %s items", humanize.Comma(int64(resp.Count)))
		},
	}
}

func (a *app) emptyTrashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "empty-trash",
		Short: "Permanently delete everything in the trash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.client.EmptyTrash(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(resp, "Deleted %s items", humanize.Comma(int64(resp.Count)))
		},
	}
}

func (a *app) starCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "star <id>",
		Short: "Star an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Star(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.printResult(map[string]any{"id": args[0], "starred": true}, "Starred %s", args[0])
		},
	}
}

func (a *app) unstarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unstar <id>",
		Short: "Remove the star from an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Unstar(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.printResult(map[string]any{"id": args[0], "starred": false}, "Unstarred %s", args[0])
		},
	}
}

func (a *app) listingCmd(use, short string, list func(*client.Client, context.Context) ([]models.Item, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := list(a.client, cmd.Context())
			if err != nil {
				return err
			}
			return a.printEntries(models.Format(items))
		},
	}
	cmd.Flags().BoolVar(&a.all, "all", false, "Show every entry instead of one page")
	return cmd
}

func (a *app) usageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show storage usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.client.StorageUsage(cmd.Context())
			if err != nil {
				return err
			}
			return a.printUsage(u)
		},
	}
}

type serverStatus struct {
	Server string `json:"server" yaml:"server"`
	Online bool   `json:"online" yaml:"online"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := serverStatus{Server: a.cfg.APIURL}
			err := a.client.Ping(cmd.Context())
			st.Online = a.client.IsOnline()
			if err != nil {
				st.Error = err.Error()
			}
			state := "online"
			if !st.Online {
				state = "offline"
			}
			if perr := a.printResult(st, "%s is %s", st.Server, state); perr != nil {
				return perr
			}
			if err != nil {
				return &displayError{msg: "server is offline", err: err}
			}
			return nil
		},
	}
}

func (a *app) downloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <id> <dest>",
		Short: "Download a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, dest := args[0], args[1]
			f, err := os.Create(dest)
			if err != nil {
				return err
			}
			err = a.client.Download(cmd.Context(), id, f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(dest)
				return err
			}
			info, err := os.Stat(dest)
			if err != nil {
				return err
			}
			return a.printResult(map[string]any{"id": id, "path": dest, "size": info.Size()},
				"Downloaded %s to %s", humanize.Bytes(uint64(info.Size())), dest)
		},
	}
}

func (a *app) viewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view [list|grid]",
		Short: "Show or set the listing layout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				v, err := prefs.ParseView(args[0])
				if err != nil {
					return err
				}
				a.prefs.View = v
				if err := prefs.Save(a.prefsPath, a.prefs); err != nil {
					return fmt.Errorf("save preferences: %w", err)
				}
				a.log.Debug("view changed", logging.String("view", string(v)))
			}
			return a.printResult(map[string]string{"view": string(a.prefs.View)}, "%s", a.prefs.View)
		},
	}
}
