// Package surface drives the blocking configuration page an operator uses to
// pick the variant of each entity, and turns its result into selection
// updates.
//
// The page reports its outcome as the last URL it navigated to. Visiting the
// bare origin means dismissed. Otherwise the path after the origin carries
// percent-encoded records joined by a delimiter, with a trailing delimiter:
//
//	http://localhost/mario%3DengCSK_SPLITfox%3DjpCSK_SPLIT
package surface

import (
	"context"
	"errors"
)

// ErrForeignURL is returned by [ParseSubmission] when the result URL does not
// start with the expected origin.
var ErrForeignURL = errors.New("surface: url outside origin")

// Item is one selectable entity on the page.
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Selected is the tag of the current variant ("eng", "jp" or "default").
	Selected string `json:"selected"`
}

// Page is the content shown to the operator, in roster order.
type Page struct {
	Items []Item `json:"items"`
}

// Result is what the page reports when it closes.
type Result struct {
	LastURL string
}

// Surface shows a page and blocks until the operator closes it or ctx ends.
type Surface interface {
	Show(ctx context.Context, page Page) (Result, error)
}
