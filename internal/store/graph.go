package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the Graph drive endpoint for the signed-in application's
// drive.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0/me/drive"

// DefaultTimeout is the default HTTP request timeout for store calls.
const DefaultTimeout = 30 * time.Second

// Client talks to a Microsoft Graph drive. It implements FileStore and
// WorkbookWriter.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// Options configures a Client.
type Options struct {
	// BaseURL overrides the Graph drive endpoint, for tests or app drives.
	BaseURL string
	// Timeout bounds each HTTP request.
	Timeout time.Duration
}

// NewClient creates a Graph drive client using the given token source.
func NewClient(tokens TokenSource, opts *Options) *Client {
	baseURL := DefaultBaseURL
	timeout := DefaultTimeout
	if opts != nil {
		if opts.BaseURL != "" {
			baseURL = strings.TrimRight(opts.BaseURL, "/")
		}
		if opts.Timeout > 0 {
			timeout = opts.Timeout
		}
	}
	return &Client{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// driveItem is the subset of the Graph item resource the client reads.
type driveItem struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Folder *json.RawMessage `json:"folder,omitempty"`
}

type driveChildren struct {
	Value []driveItem `json:"value"`
}

// graphError is the error envelope Graph returns on failures.
type graphError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GetFile downloads a file's content by item id.
func (c *Client) GetFile(ctx context.Context, fileID string) ([]byte, error) {
	path := fmt.Sprintf("/items/%s/content", url.PathEscape(fileID))
	body, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// ListFolders lists the sub-folders of a parent folder. Non-folder children
// are filtered out.
func (c *Client) ListFolders(ctx context.Context, parentID string) ([]Folder, error) {
	path := fmt.Sprintf("/items/%s/children", url.PathEscape(parentID))
	body, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}

	var children driveChildren
	if err := json.Unmarshal(body, &children); err != nil {
		return nil, &Error{Op: "list", Path: path, Message: "failed to parse children response", Cause: err}
	}

	var folders []Folder
	for _, item := range children.Value {
		if item.Folder != nil {
			folders = append(folders, Folder{ID: item.ID, Name: item.Name})
		}
	}
	return folders, nil
}

// CreateFolder creates a named folder under a parent. A name conflict is
// resolved by looking the existing folder up and returning its handle, which
// keeps the operation idempotent across runs.
func (c *Client) CreateFolder(ctx context.Context, parentID, name string) (Folder, error) {
	path := fmt.Sprintf("/items/%s/children", url.PathEscape(parentID))
	payload, err := json.Marshal(map[string]any{
		"name":                              name,
		"folder":                            map[string]any{},
		"@microsoft.graph.conflictBehavior": "fail",
	})
	if err != nil {
		return Folder{}, &Error{Op: "create", Path: path, Message: "failed to encode request", Cause: err}
	}

	body, err := c.do(ctx, http.MethodPost, path, "application/json", payload)
	if err != nil {
		var storeErr *Error
		if errors.As(err, &storeErr) && storeErr.StatusCode == http.StatusConflict {
			return c.findFolder(ctx, parentID, name)
		}
		return Folder{}, err
	}

	var item driveItem
	if err := json.Unmarshal(body, &item); err != nil {
		return Folder{}, &Error{Op: "create", Path: path, Message: "failed to parse folder response", Cause: err}
	}
	return Folder{ID: item.ID, Name: item.Name}, nil
}

// findFolder resolves a folder by name after a create conflict.
func (c *Client) findFolder(ctx context.Context, parentID, name string) (Folder, error) {
	folders, err := c.ListFolders(ctx, parentID)
	if err != nil {
		return Folder{}, err
	}
	for _, f := range folders {
		if strings.EqualFold(f.Name, name) {
			return f, nil
		}
	}
	return Folder{}, &Error{
		Op:      "create",
		Path:    parentID,
		Message: fmt.Sprintf("folder %q conflicted on create but was not found on re-list", name),
	}
}

// UploadFile puts content into a folder under the given name. Graph replaces
// an existing file with the same name, which gives reruns their overwrite
// safety net.
func (c *Client) UploadFile(ctx context.Context, folderID, name string, content []byte) error {
	path := fmt.Sprintf("/items/%s:/%s:/content", url.PathEscape(folderID), url.PathEscape(name))
	_, err := c.do(ctx, http.MethodPut, path, "application/octet-stream", content)
	return err
}

// do performs one authenticated request and returns the response body.
// Non-2xx responses become *Error with the Graph error message when present.
func (c *Client) do(ctx context.Context, method, path, contentType string, payload []byte) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, &Error{Op: method, Path: path, Message: "failed to acquire token", Cause: err}
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, &Error{Op: method, Path: path, Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Op: method, Path: path, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: method, Path: path, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := strings.TrimSpace(string(body))
		var ge graphError
		if json.Unmarshal(body, &ge) == nil && ge.Error.Message != "" {
			message = ge.Error.Code + ": " + ge.Error.Message
		}
		return nil, &Error{Op: method, Path: path, StatusCode: resp.StatusCode, Message: message}
	}

	return body, nil
}
