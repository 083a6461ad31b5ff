package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/fileflow/fileflow/internal/navigator"
	"github.com/fileflow/fileflow/internal/prefs"
	"github.com/fileflow/fileflow/pkg/models"
	"github.com/fileflow/fileflow/pkg/tree"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// entryRow is the structured form of a listing entry.
type entryRow struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Size     int64  `json:"size" yaml:"size"`
	Starred  bool   `json:"starred" yaml:"starred"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	Category string `json:"category" yaml:"category"`
	Color    string `json:"color" yaml:"color"`
}

type folderView struct {
	FolderID    string       `json:"folderId" yaml:"folderId"`
	Path        string       `json:"path" yaml:"path"`
	Breadcrumbs []tree.Crumb `json:"breadcrumbs" yaml:"breadcrumbs"`
	Entries     []entryRow   `json:"entries" yaml:"entries"`
}

func rows(entries []models.DisplayEntry) []entryRow {
	out := make([]entryRow, 0, len(entries))
	for _, e := range entries {
		it := e.Base()
		out = append(out, entryRow{
			ID:       it.ID,
			Name:     it.Name,
			Type:     string(it.Type),
			Size:     it.Size,
			Starred:  it.IsStarred,
			Path:     it.Path,
			Category: string(e.Class),
			Color:    e.Color,
		})
	}
	return out
}

// encode writes v as JSON or YAML. It reports false for table output.
func (a *app) encode(v any) (bool, error) {
	switch a.output {
	case outputJSON:
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

func (a *app) printFolder(st navigator.State) error {
	path := "/"
	if st.CurrentFolderMeta != nil && st.CurrentFolderMeta.Path != "" {
		path = st.CurrentFolderMeta.Path
	}
	done, err := a.encode(folderView{
		FolderID:    st.CurrentFolderID,
		Path:        path,
		Breadcrumbs: st.Breadcrumbs,
		Entries:     rows(st.Contents),
	})
	if done {
		return err
	}

	crumbs := make([]string, len(st.Breadcrumbs))
	for i, c := range st.Breadcrumbs {
		crumbs[i] = fmt.Sprintf("[%d] %s", i, c.Name)
	}
	fmt.Fprintln(a.out, strings.Join(crumbs, " / "))
	return a.printEntries(st.Contents)
}

// printEntries renders a listing in the saved view, truncated to the page
// size unless --all was given.
func (a *app) printEntries(entries []models.DisplayEntry) error {
	if done, err := a.encode(rows(entries)); done {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "(empty)")
		return nil
	}

	shown := entries
	if !a.all && a.cfg.PageSize > 0 && len(shown) > a.cfg.PageSize {
		shown = shown[:a.cfg.PageSize]
	}

	if a.prefs.View == prefs.ViewGrid {
		writeGrid(a.out, shown)
	} else {
		writeList(a.out, shown)
	}

	if rest := len(entries) - len(shown); rest > 0 {
		fmt.Fprintf(a.out, "... and %s more (use --all)\n", humanize.Comma(int64(rest)))
	}
	return nil
}

func writeList(w io.Writer, entries []models.DisplayEntry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tSIZE\tSTARRED\tID")
	for _, e := range entries {
		it := e.Base()
		size := "-"
		if _, ok := e.Entry.(*models.File); ok {
			size = humanize.Bytes(uint64(max(it.Size, 0)))
		}
		star := ""
		if it.IsStarred {
			star = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", displayName(e), e.Class, size, star, it.ID)
	}
	tw.Flush()
}

const gridColumns = 4

func writeGrid(w io.Writer, entries []models.DisplayEntry) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	for i, e := range entries {
		sep := "\t"
		if (i+1)%gridColumns == 0 || i == len(entries)-1 {
			sep = "\n"
		}
		fmt.Fprint(tw, displayName(e)+sep)
	}
	tw.Flush()
}

func displayName(e models.DisplayEntry) string {
	if _, ok := e.Entry.(*models.Folder); ok {
		return e.Base().Name + "/"
	}
	return e.Base().Name
}

func (a *app) printUsage(u *models.StorageUsage) error {
	type usageView struct {
		Used    int64   `json:"used" yaml:"used"`
		Total   int64   `json:"total" yaml:"total"`
		Percent float64 `json:"percent" yaml:"percent"`
	}
	if done, err := a.encode(usageView{Used: u.Used, Total: u.Total, Percent: u.Percent()}); done {
		return err
	}
	fmt.Fprintf(a.out, "%s of %s used (%.1f%%)\n",
		humanize.Bytes(uint64(max(u.Used, 0))),
		humanize.Bytes(uint64(max(u.Total, 0))),
		u.Percent())
	return nil
}

// printResult writes a one-line confirmation, or v for structured output.
func (a *app) printResult(v any, format string, args ...any) error {
	if done, err := a.encode(v); done {
		return err
	}
	fmt.Fprintf(a.out, format+"\n", args...)
	return nil
}
