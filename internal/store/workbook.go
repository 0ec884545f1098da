package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// WriteCell patches a single cell of a worksheet through the Graph workbook
// API. The address is A1-style ("D5"). Only the targeted cell changes, so
// concurrent edits to other rows of the roster are untouched.
func (c *Client) WriteCell(ctx context.Context, fileID, worksheet, address, value string) error {
	path := fmt.Sprintf("/items/%s/workbook/worksheets(%s)/range(address=%s)",
		url.PathEscape(fileID),
		url.PathEscape("'"+worksheet+"'"),
		url.PathEscape("'"+address+"'"),
	)

	payload, err := json.Marshal(map[string]any{
		"values": [][]string{{value}},
	})
	if err != nil {
		return &Error{Op: "write-cell", Path: path, Message: "failed to encode request", Cause: err}
	}

	_, err = c.do(ctx, http.MethodPatch, path, "application/json", payload)
	return err
}
