package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

type captured struct {
	method string
	path   string
	body   []byte
}

func TestResourceRoutes(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		call   func(c *Client) error
		method string
		path   string
		body   string
	}{
		{"folder", func(c *Client) error { _, err := c.Folder(ctx, "42"); return err }, "GET", "/api/folders/42", ""},
		{"folder by path", func(c *Client) error { _, err := c.Folder(ctx, "/A/B"); return err }, "GET", "/api/folders/%2FA%2FB", ""},
		{"children", func(c *Client) error { _, err := c.FolderChildren(ctx, "42"); return err }, "GET", "/api/folders/42/children", ""},
		{"root children", func(c *Client) error { _, err := c.FolderChildren(ctx, ""); return err }, "GET", "/api/folders/root/children", ""},
		{"create", func(c *Client) error { _, err := c.CreateFolder(ctx, "Reports", "42"); return err }, "POST", "/api/folders", `{"folderName":"Reports","targetFolderId":"42"}`},
		{"create at root", func(c *Client) error { _, err := c.CreateFolder(ctx, "Reports", "root"); return err }, "POST", "/api/folders", `{"folderName":"Reports","targetFolderId":null}`},
		{"rename file", func(c *Client) error { _, err := c.RenameFile(ctx, "f1", "b.txt"); return err }, "PUT", "/api/files/f1", `{"name":"b.txt"}`},
		{"rename folder", func(c *Client) error { _, err := c.RenameFolder(ctx, "d1", "Docs"); return err }, "PUT", "/api/folders/d1", `{"name":"Docs"}`},
		{"move", func(c *Client) error { return c.MoveItem(ctx, "f1", "d2") }, "PATCH", "/api/items/f1/move", `{"targetFolderId":"d2"}`},
		{"move to root", func(c *Client) error { return c.MoveItem(ctx, "f1", "") }, "PATCH", "/api/items/f1/move", `{"targetFolderId":null}`},
		{"trash file", func(c *Client) error { return c.TrashFile(ctx, "f1") }, "DELETE", "/api/files/f1", ""},
		{"trash folder", func(c *Client) error { return c.TrashFolder(ctx, "d1") }, "DELETE", "/api/folders/d1", ""},
		{"delete file", func(c *Client) error { return c.DeleteFilePermanently(ctx, "f1") }, "DELETE", "/api/files/f1/permanent", ""},
		{"delete folder", func(c *Client) error { return c.DeleteFolderPermanently(ctx, "d1") }, "DELETE", "/api/folders/d1/permanent", ""},
		{"restore file", func(c *Client) error { return c.RestoreFile(ctx, "f1") }, "POST", "/api/files/f1/restore", ""},
		{"restore folder", func(c *Client) error { return c.RestoreFolder(ctx, "d1") }, "PATCH", "/api/folders/d1/restore", ""},
		{"star", func(c *Client) error { return c.Star(ctx, "f1") }, "PATCH", "/api/items/f1/star", ""},
		{"unstar", func(c *Client) error { return c.Unstar(ctx, "f1") }, "DELETE", "/api/items/f1/star", ""},
		{"starred", func(c *Client) error { _, err := c.Starred(ctx); return err }, "GET", "/api/items/starred", ""},
		{"recent", func(c *Client) error { _, err := c.Recent(ctx); return err }, "GET", "/api/items/recent", ""},
		{"trash", func(c *Client) error { _, err := c.Trash(ctx); return err }, "GET", "/api/items/trash", ""},
		{"empty trash", func(c *Client) error { _, err := c.EmptyTrash(ctx); return err }, "POST", "/api/trash/empty", ""},
		{"restore all", func(c *Client) error { _, err := c.RestoreAll(ctx); return err }, "POST", "/api/trash/restore", ""},
		{"storage", func(c *Client) error { _, err := c.StorageUsage(ctx); return err }, "GET", "/api/users/storage", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got captured
			c, ts, _ := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got.method = r.Method
				got.path = r.URL.EscapedPath()
				got.body, _ = io.ReadAll(r.Body)
				w.Header().Set("Content-Type", "application/json")
				if strings.HasPrefix(r.URL.Path, "/api/items/") && r.Method == "GET" || strings.HasSuffix(r.URL.Path, "/children") {
					io.WriteString(w, "[]")
					return
				}
				io.WriteString(w, "{}")
			}))
			defer ts.Close()

			if err := tt.call(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.method != tt.method || got.path != tt.path {
				t.Errorf("expected %s %s, got %s %s", tt.method, tt.path, got.method, got.path)
			}
			if strings.TrimSpace(string(got.body)) != tt.body {
				t.Errorf("expected body %q, got %q", tt.body, got.body)
			}
		})
	}
}

func TestCreateFolder_ReturnsDescriptor(t *testing.T) {
	var contentType string
	c, ts, _ := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		writeJSON(w, http.StatusCreated, map[string]any{"id": "99", "name": "Reports", "path": "/Work/Reports", "parentId": "42"})
	}))
	defer ts.Close()

	folder, err := c.CreateFolder(context.Background(), "Reports", "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if folder.ID != "99" || folder.Path != "/Work/Reports" || folder.ParentID != "42" {
		t.Errorf("unexpected folder: %+v", folder)
	}
	if contentType != "application/json" {
		t.Errorf("expected JSON content type, got %q", contentType)
	}
}

func TestDownload(t *testing.T) {
	c, ts, _ := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/files/f1/download" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		io.WriteString(w, "%PDF-1.7")
	}))
	defer ts.Close()

	var buf bytes.Buffer
	if err := c.Download(context.Background(), "f1", &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "%PDF-1.7" {
		t.Errorf("unexpected content %q", buf.String())
	}

	err := c.Download(context.Background(), "missing", &buf)
	if !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUpload(t *testing.T) {
	var target, name, content string
	c, ts, _ := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		target = r.FormValue("targetFolderId")
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		name, content = hdr.Filename, string(data)
		writeJSON(w, http.StatusCreated, map[string]any{"id": "f9", "name": name, "size": len(data), "parentId": target})
	}))
	defer ts.Close()

	resp, err := c.Upload(context.Background(), "notes.txt", strings.NewReader("hello"), "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target != "42" || name != "notes.txt" || content != "hello" {
		t.Errorf("unexpected upload: target=%q name=%q content=%q", target, name, content)
	}
	if resp.ID != "f9" || resp.Size != 5 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestUpload_RootOmitsTarget(t *testing.T) {
	var form map[string][]string
	c, ts, _ := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		form = r.MultipartForm.Value
		writeJSON(w, http.StatusCreated, map[string]any{"id": "f1"})
	}))
	defer ts.Close()

	if _, err := c.Upload(context.Background(), "a.txt", strings.NewReader("x"), "root"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := form["targetFolderId"]; ok {
		t.Errorf("root upload should not send targetFolderId, got %v", form)
	}
}

func TestFolderChildren_DecodesEntries(t *testing.T) {
	c, ts, _ := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "1", "name": "Docs", "type": "folder", "isStarred": true, "parentId": "root", "path": "/Docs", "size": 0, "isInTrash": false},
			{"id": "2", "name": "a.png", "type": "file", "path": "/a.png", "size": 2048, "fileCategory": "image"},
		})
	}))
	defer ts.Close()

	items, err := c.FolderChildren(context.Background(), "root")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if !items[0].IsStarred || items[0].Type != "folder" || items[0].ParentID != "root" {
		t.Errorf("unexpected folder item: %+v", items[0])
	}
	if items[1].Size != 2048 || items[1].FileCategory != "image" {
		t.Errorf("unexpected file item: %+v", items[1])
	}
}
