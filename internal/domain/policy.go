package domain

import (
	"github.com/landonvance1/BookSharingApp/internal/model"
)

// CanAdvance reports whether the actor may trigger the next happy-path
// transition out of status. Pure function; the server remains the final
// authority.
//
//	Requested -> Ready      owner only
//	Ready     -> PickedUp   borrower only
//	PickedUp  -> Returned   borrower only
//	Returned  -> HomeSafe   owner only
//	terminal states         nobody
func CanAdvance(status model.ShareStatus, isOwner, isBorrower bool) bool {
	switch status {
	case model.StatusRequested:
		return isOwner
	case model.StatusReady:
		return isBorrower
	case model.StatusPickedUp:
		return isBorrower
	case model.StatusReturned:
		return isOwner
	default:
		return false
	}
}

// CanDecline: owner only, only while the share is still Requested.
func CanDecline(status model.ShareStatus, isOwner bool) bool {
	return status == model.StatusRequested && isOwner
}

// CanDispute: either party, from any non-terminal status. Disputing is a
// side transition, not an advance; HomeSafe is exempt along with the other
// terminal states.
func CanDispute(share *model.Share, isOwner, isBorrower bool) bool {
	if share.IsDisputed {
		return false
	}
	if share.Status.IsTerminal() {
		return false
	}
	return isOwner || isBorrower
}

// CanArchive: only terminal shares may move into or out of the archived
// partition. Archiving never touches status.
func CanArchive(status model.ShareStatus) bool {
	return status.IsTerminal()
}
