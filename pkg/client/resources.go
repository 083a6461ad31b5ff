package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/fileflow/fileflow/internal/metrics"
	"github.com/fileflow/fileflow/pkg/models"
	"github.com/fileflow/fileflow/pkg/protocol"
)

// Named operations. Each one only builds a Request; retry, auth and error
// typing all come from Do.

func esc(id string) string {
	return url.PathEscape(id)
}

// Folder fetches folder metadata. id may be a folder ID or a server path.
func (c *Client) Folder(ctx context.Context, id string) (*models.FolderMeta, error) {
	var out models.FolderMeta
	err := c.Do(ctx, &Request{
		Op:     "folder.get",
		Method: http.MethodGet,
		Path:   "/api/folders/" + esc(id),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FolderChildren lists the entries of a folder. Use models.RootID for the root.
func (c *Client) FolderChildren(ctx context.Context, id string) ([]models.Item, error) {
	if id == "" {
		id = models.RootID
	}
	return c.listing(ctx, "folder.children", "/api/folders/"+esc(id)+"/children")
}

// CreateFolder creates name inside targetFolderID ("" or root for the top level).
func (c *Client) CreateFolder(ctx context.Context, name, targetFolderID string) (*models.FolderMeta, error) {
	var out models.FolderMeta
	err := c.Do(ctx, &Request{
		Op:     "folder.create",
		Method: http.MethodPost,
		Path:   "/api/folders",
		Body: protocol.CreateFolderRequest{
			FolderName:     name,
			TargetFolderID: protocol.OptionalID(targetFolderID, models.RootID),
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RenameFile renames a file.
func (c *Client) RenameFile(ctx context.Context, id, name string) (*models.Item, error) {
	return c.rename(ctx, "file.rename", "/api/files/"+esc(id), name)
}

// RenameFolder renames a folder.
func (c *Client) RenameFolder(ctx context.Context, id, name string) (*models.Item, error) {
	return c.rename(ctx, "folder.rename", "/api/folders/"+esc(id), name)
}

func (c *Client) rename(ctx context.Context, op, path, name string) (*models.Item, error) {
	var out models.Item
	err := c.Do(ctx, &Request{
		Op:     op,
		Method: http.MethodPut,
		Path:   path,
		Body:   protocol.RenameRequest{Name: name},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// MoveItem moves a file or folder into targetFolderID ("" or root for the top level).
func (c *Client) MoveItem(ctx context.Context, id, targetFolderID string) error {
	return c.Do(ctx, &Request{
		Op:     "item.move",
		Method: http.MethodPatch,
		Path:   "/api/items/" + esc(id) + "/move",
		Body:   protocol.MoveRequest{TargetFolderID: protocol.OptionalID(targetFolderID, models.RootID)},
	}, nil)
}

// TrashFile moves a file to the trash.
func (c *Client) TrashFile(ctx context.Context, id string) error {
	return c.simple(ctx, "file.trash", http.MethodDelete, "/api/files/"+esc(id))
}

// TrashFolder moves a folder to the trash.
func (c *Client) TrashFolder(ctx context.Context, id string) error {
	return c.simple(ctx, "folder.trash", http.MethodDelete, "/api/folders/"+esc(id))
}

// DeleteFilePermanently removes a file for good.
func (c *Client) DeleteFilePermanently(ctx context.Context, id string) error {
	return c.simple(ctx, "file.delete", http.MethodDelete, "/api/files/"+esc(id)+"/permanent")
}

// DeleteFolderPermanently removes a folder for good.
func (c *Client) DeleteFolderPermanently(ctx context.Context, id string) error {
	return c.simple(ctx, "folder.delete", http.MethodDelete, "/api/folders/"+esc(id)+"/permanent")
}

// RestoreFile brings a file back from the trash.
func (c *Client) RestoreFile(ctx context.Context, id string) error {
	return c.simple(ctx, "file.restore", http.MethodPost, "/api/files/"+esc(id)+"/restore")
}

// RestoreFolder brings a folder back from the trash.
func (c *Client) RestoreFolder(ctx context.Context, id string) error {
	return c.simple(ctx, "folder.restore", http.MethodPatch, "/api/folders/"+esc(id)+"/restore")
}

// Star marks an item as starred.
func (c *Client) Star(ctx context.Context, id string) error {
	return c.simple(ctx, "item.star", http.MethodPatch, "/api/items/"+esc(id)+"/star")
}

// Unstar clears the starred flag.
func (c *Client) Unstar(ctx context.Context, id string) error {
	return c.simple(ctx, "item.unstar", http.MethodDelete, "/api/items/"+esc(id)+"/star")
}

// Starred lists starred items.
func (c *Client) Starred(ctx context.Context) ([]models.Item, error) {
	return c.listing(ctx, "items.starred", "/api/items/starred")
}

// Recent lists recently touched items.
func (c *Client) Recent(ctx context.Context) ([]models.Item, error) {
	return c.listing(ctx, "items.recent", "/api/items/recent")
}

// Trash lists trashed items.
func (c *Client) Trash(ctx context.Context) ([]models.Item, error) {
	return c.listing(ctx, "items.trash", "/api/items/trash")
}

// EmptyTrash permanently deletes everything in the trash.
func (c *Client) EmptyTrash(ctx context.Context) (*protocol.BulkResponse, error) {
	return c.bulk(ctx, "trash.empty", "/api/trash/empty")
}

// RestoreAll restores everything in the trash.
func (c *Client) RestoreAll(ctx context.Context) (*protocol.BulkResponse, error) {
	return c.bulk(ctx, "trash.restore", "/api/trash/restore")
}

// StorageUsage returns the user's quota usage.
func (c *Client) StorageUsage(ctx context.Context) (*models.StorageUsage, error) {
	var out models.StorageUsage
	err := c.Do(ctx, &Request{
		Op:     "user.storage",
		Method: http.MethodGet,
		Path:   "/api/users/storage",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Download streams a file's content into w.
func (c *Client) Download(ctx context.Context, id string, w io.Writer) error {
	return c.Do(ctx, &Request{
		Op:     "file.download",
		Method: http.MethodGet,
		Path:   "/api/files/" + esc(id) + "/download",
	}, w)
}

// Upload sends r as a multipart upload named name into targetFolderID.
// The form is buffered so that retries can resend it.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader, targetFolderID string) (*protocol.UploadResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if id := protocol.OptionalID(targetFolderID, models.RootID); id != nil {
		if err := mw.WriteField(protocol.UploadTargetField, *id); err != nil {
			return nil, err
		}
	}
	part, err := mw.CreateFormFile(protocol.UploadFileField, name)
	if err != nil {
		return nil, err
	}
	n, err := io.Copy(part, r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out protocol.UploadResponse
	err = c.Do(ctx, &Request{
		Op:          "file.upload",
		Method:      http.MethodPost,
		Path:        "/api/files/upload",
		RawBody:     buf.Bytes(),
		ContentType: mw.FormDataContentType(),
	}, &out)
	if err != nil {
		return nil, err
	}
	metrics.RecordTransfer("up", n)
	return &out, nil
}

func (c *Client) simple(ctx context.Context, op, method, path string) error {
	return c.Do(ctx, &Request{Op: op, Method: method, Path: path}, nil)
}

func (c *Client) listing(ctx context.Context, op, path string) ([]models.Item, error) {
	var out []models.Item
	err := c.Do(ctx, &Request{Op: op, Method: http.MethodGet, Path: path}, &out)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Item{}
	}
	return out, nil
}

func (c *Client) bulk(ctx context.Context, op, path string) (*protocol.BulkResponse, error) {
	var out protocol.BulkResponse
	err := c.Do(ctx, &Request{Op: op, Method: http.MethodPost, Path: path}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
