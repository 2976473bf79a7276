package api

import (
	"context"
	"fmt"
	"time"

	"github.com/landonvance1/BookSharingApp/internal/model"
)

// ListBorrowerShares lists active shares where the current user is borrowing.
func (c *Client) ListBorrowerShares(ctx context.Context) ([]*model.Share, error) {
	var shares []*model.Share
	if err := c.get(ctx, "/shares/borrower", &shares); err != nil {
		return nil, err
	}
	return shares, nil
}

// ListLenderShares lists active shares where the current user is lending.
func (c *Client) ListLenderShares(ctx context.Context) ([]*model.Share, error) {
	var shares []*model.Share
	if err := c.get(ctx, "/shares/lender", &shares); err != nil {
		return nil, err
	}
	return shares, nil
}

// ListArchivedBorrowerShares lists archived shares borrowed by the user.
func (c *Client) ListArchivedBorrowerShares(ctx context.Context) ([]*model.Share, error) {
	var shares []*model.Share
	if err := c.get(ctx, "/shares/borrower/archived", &shares); err != nil {
		return nil, err
	}
	return shares, nil
}

// ListArchivedLenderShares lists archived shares lent by the user.
func (c *Client) ListArchivedLenderShares(ctx context.Context) ([]*model.Share, error) {
	var shares []*model.Share
	if err := c.get(ctx, "/shares/lender/archived", &shares); err != nil {
		return nil, err
	}
	return shares, nil
}

// The backend reads the capitalized Status key, unlike every other body.
type updateStatusRequest struct {
	Status model.ShareStatus `json:"Status"`
}

// UpdateShareStatus applies a status change and returns the canonical share.
func (c *Client) UpdateShareStatus(ctx context.Context, shareID int64, status model.ShareStatus) (*model.Share, error) {
	var share model.Share
	path := fmt.Sprintf("/shares/%d/status", shareID)
	if err := c.mutate(ctx, "PUT", path, updateStatusRequest{Status: status}, &share); err != nil {
		return nil, err
	}
	return &share, nil
}

type updateReturnDateRequest struct {
	ReturnDate string `json:"returnDate"`
}

// UpdateReturnDate sets the due date and returns the canonical share.
func (c *Client) UpdateReturnDate(ctx context.Context, shareID int64, date time.Time) (*model.Share, error) {
	var share model.Share
	path := fmt.Sprintf("/shares/%d/return-date", shareID)
	body := updateReturnDateRequest{ReturnDate: date.UTC().Format(time.RFC3339)}
	if err := c.mutate(ctx, "PUT", path, body, &share); err != nil {
		return nil, err
	}
	return &share, nil
}

// ArchiveShare moves the share into the archived partition.
func (c *Client) ArchiveShare(ctx context.Context, shareID int64) error {
	return c.mutate(ctx, "POST", fmt.Sprintf("/shares/%d/archive", shareID), nil, nil)
}

// UnarchiveShare moves the share back out of the archived partition.
func (c *Client) UnarchiveShare(ctx context.Context, shareID int64) error {
	return c.mutate(ctx, "POST", fmt.Sprintf("/shares/%d/unarchive", shareID), nil, nil)
}

// DisputeShare raises a dispute and returns the canonical share.
func (c *Client) DisputeShare(ctx context.Context, shareID int64) (*model.Share, error) {
	var share model.Share
	if err := c.mutate(ctx, "POST", fmt.Sprintf("/shares/%d/dispute", shareID), nil, &share); err != nil {
		return nil, err
	}
	return &share, nil
}
