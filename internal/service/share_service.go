// Package service implements the business logic layer on top of the REST
// client and the realtime hub.
package service

import (
	"context"
	"time"

	"github.com/landonvance1/BookSharingApp/internal/domain"
	"github.com/landonvance1/BookSharingApp/internal/model"
	"github.com/landonvance1/BookSharingApp/pkg/code"
	"github.com/landonvance1/BookSharingApp/pkg/logger"

	"go.uber.org/zap"
)

// ShareAPI is the REST surface the share service depends on.
type ShareAPI interface {
	ListBorrowerShares(ctx context.Context) ([]*model.Share, error)
	ListLenderShares(ctx context.Context) ([]*model.Share, error)
	ListArchivedBorrowerShares(ctx context.Context) ([]*model.Share, error)
	ListArchivedLenderShares(ctx context.Context) ([]*model.Share, error)
	UpdateShareStatus(ctx context.Context, shareID int64, status model.ShareStatus) (*model.Share, error)
	UpdateReturnDate(ctx context.Context, shareID int64, date time.Time) (*model.Share, error)
	ArchiveShare(ctx context.Context, shareID int64) error
	UnarchiveShare(ctx context.Context, shareID int64) error
	DisputeShare(ctx context.Context, shareID int64) (*model.Share, error)
}

// ShareService owns the share lifecycle. Every mutation is permission-checked
// locally before the request goes out, and the canonical share returned by
// the server replaces the caller's copy wholesale.
type ShareService interface {
	// BorrowerShares lists active shares where userID borrows, display-sorted.
	BorrowerShares(ctx context.Context) ([]*model.Share, error)

	// LenderShares lists active shares where userID lends, display-sorted.
	LenderShares(ctx context.Context) ([]*model.Share, error)

	// ArchivedBorrowerShares lists archived borrowed shares, display-sorted.
	ArchivedBorrowerShares(ctx context.Context) ([]*model.Share, error)

	// ArchivedLenderShares lists archived lent shares, display-sorted.
	ArchivedLenderShares(ctx context.Context) ([]*model.Share, error)

	// Advance moves the share one step along the happy path on behalf of
	// userID, enforcing the per-status actor rules.
	Advance(ctx context.Context, share *model.Share, userID string) (*model.Share, error)

	// Decline rejects a pending request. Owner-only, Requested-only.
	Decline(ctx context.Context, share *model.Share, userID string) (*model.Share, error)

	// Dispute flags the share. Either participant, any non-terminal status;
	// completed shares can no longer be disputed.
	Dispute(ctx context.Context, share *model.Share, userID string) (*model.Share, error)

	// SetReturnDate updates the due date. Owner-only.
	SetReturnDate(ctx context.Context, share *model.Share, userID string, date time.Time) (*model.Share, error)

	// Archive hides a finished share from the active listings.
	Archive(ctx context.Context, share *model.Share) error

	// Unarchive restores an archived share to the active listings.
	Unarchive(ctx context.Context, share *model.Share) error

	// Timeline derives the display timeline for the share.
	Timeline(share *model.Share) []domain.Step

	// NextAction returns the action label userID may perform right now,
	// false when no status action is available to them.
	NextAction(share *model.Share, userID string) (string, bool)
}

type shareService struct {
	api    ShareAPI
	logger *zap.Logger
}

// NewShareService builds the share lifecycle service.
func NewShareService(api ShareAPI, lg *zap.Logger) ShareService {
	return &shareService{api: api, logger: lg}
}

func (s *shareService) BorrowerShares(ctx context.Context) ([]*model.Share, error) {
	return s.list(ctx, s.api.ListBorrowerShares)
}

func (s *shareService) LenderShares(ctx context.Context) ([]*model.Share, error) {
	return s.list(ctx, s.api.ListLenderShares)
}

func (s *shareService) ArchivedBorrowerShares(ctx context.Context) ([]*model.Share, error) {
	return s.list(ctx, s.api.ListArchivedBorrowerShares)
}

func (s *shareService) ArchivedLenderShares(ctx context.Context) ([]*model.Share, error) {
	return s.list(ctx, s.api.ListArchivedLenderShares)
}

// shareError narrows the generic not-found verdict to the share taxonomy;
// every other error passes through untouched.
func shareError(err error) error {
	if code.ErrorNotFound.Is(err) {
		return code.ErrorShareNotFound.WithDetails(err.Error())
	}
	return err
}

func (s *shareService) list(ctx context.Context, fetch func(context.Context) ([]*model.Share, error)) ([]*model.Share, error) {
	shares, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	model.SortShares(shares)
	return shares, nil
}

func (s *shareService) Advance(ctx context.Context, share *model.Share, userID string) (*model.Share, error) {
	if share.Status.IsTerminal() {
		return nil, code.ErrorShareTerminal.WithDetails(share.Status.String())
	}
	isOwner, isBorrower := share.RoleOf(userID)
	if !domain.CanAdvance(share.Status, isOwner, isBorrower) {
		return nil, code.ErrorUnauthorized.WithDetails("status " + share.Status.String() + " is not actionable for this user")
	}
	next, ok := share.Status.Next()
	if !ok {
		return nil, code.ErrorShareTransition.WithDetails(share.Status.String())
	}

	updated, err := s.api.UpdateShareStatus(ctx, share.ID, next)
	if err != nil {
		return nil, shareError(err)
	}
	s.logger.Info("Share Advance",
		zap.Int64(logger.FieldShareID, share.ID),
		zap.String(logger.FieldStatus, updated.Status.String()))
	return updated, nil
}

func (s *shareService) Decline(ctx context.Context, share *model.Share, userID string) (*model.Share, error) {
	isOwner, _ := share.RoleOf(userID)
	if !isOwner {
		return nil, code.ErrorUnauthorized.WithDetails("only the owner may decline")
	}
	if !domain.CanDecline(share.Status, isOwner) {
		return nil, code.ErrorShareTransition.WithDetails("decline requires status Requested, share is " + share.Status.String())
	}

	updated, err := s.api.UpdateShareStatus(ctx, share.ID, model.StatusDeclined)
	if err != nil {
		return nil, shareError(err)
	}
	s.logger.Info("Share Decline", zap.Int64(logger.FieldShareID, share.ID))
	return updated, nil
}

func (s *shareService) Dispute(ctx context.Context, share *model.Share, userID string) (*model.Share, error) {
	if share.IsDisputed {
		return nil, code.ErrorShareAlreadyDispute
	}
	if share.Status.IsTerminal() {
		return nil, code.ErrorShareTerminal.WithDetails(share.Status.String())
	}
	isOwner, isBorrower := share.RoleOf(userID)
	if !domain.CanDispute(share, isOwner, isBorrower) {
		return nil, code.ErrorUnauthorized.WithDetails("only share participants may dispute")
	}

	updated, err := s.api.DisputeShare(ctx, share.ID)
	if err != nil {
		return nil, shareError(err)
	}
	s.logger.Warn("Share Dispute",
		zap.Int64(logger.FieldShareID, share.ID),
		zap.String(logger.FieldUID, userID))
	return updated, nil
}

func (s *shareService) SetReturnDate(ctx context.Context, share *model.Share, userID string, date time.Time) (*model.Share, error) {
	if share.Status.IsTerminal() {
		return nil, code.ErrorShareTerminal.WithDetails(share.Status.String())
	}
	isOwner, _ := share.RoleOf(userID)
	if !isOwner {
		return nil, code.ErrorUnauthorized.WithDetails("only the owner may change the return date")
	}

	updated, err := s.api.UpdateReturnDate(ctx, share.ID, date)
	if err != nil {
		return nil, shareError(err)
	}
	s.logger.Info("Share ReturnDate", zap.Int64(logger.FieldShareID, share.ID))
	return updated, nil
}

func (s *shareService) Archive(ctx context.Context, share *model.Share) error {
	if !domain.CanArchive(share.Status) {
		return code.ErrorShareNotArchivable.WithDetails(share.Status.String())
	}
	if err := s.api.ArchiveShare(ctx, share.ID); err != nil {
		return shareError(err)
	}
	s.logger.Info("Share Archive", zap.Int64(logger.FieldShareID, share.ID))
	return nil
}

func (s *shareService) Unarchive(ctx context.Context, share *model.Share) error {
	if err := s.api.UnarchiveShare(ctx, share.ID); err != nil {
		return shareError(err)
	}
	s.logger.Info("Share Unarchive", zap.Int64(logger.FieldShareID, share.ID))
	return nil
}

func (s *shareService) Timeline(share *model.Share) []domain.Step {
	return domain.DeriveTimeline(share)
}

func (s *shareService) NextAction(share *model.Share, userID string) (string, bool) {
	if share.IsDisputed || share.Status.IsTerminal() {
		return "", false
	}
	isOwner, isBorrower := share.RoleOf(userID)
	if !domain.CanAdvance(share.Status, isOwner, isBorrower) {
		return "", false
	}
	return domain.ActionLabel(share.Status)
}
