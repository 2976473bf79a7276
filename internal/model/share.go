// Package model defines the wire entities shared between the REST layer,
// the realtime channel and the services.
package model

import (
	"sort"
	"strings"
	"time"
)

// ShareStatus is the ordered share lifecycle status. Values 1-5 form the
// happy path and compare numerically; Disputed and Declined sit outside the
// ordering and must never be compared with > or <.
type ShareStatus int

const (
	StatusRequested ShareStatus = 1
	StatusReady     ShareStatus = 2
	StatusPickedUp  ShareStatus = 3
	StatusReturned  ShareStatus = 4
	StatusHomeSafe  ShareStatus = 5
	StatusDisputed  ShareStatus = 6
	StatusDeclined  ShareStatus = 7
)

// HappyPath is the canonical forward sequence Requested -> HomeSafe.
var HappyPath = []ShareStatus{
	StatusRequested,
	StatusReady,
	StatusPickedUp,
	StatusReturned,
	StatusHomeSafe,
}

func (s ShareStatus) String() string {
	switch s {
	case StatusRequested:
		return "Requested"
	case StatusReady:
		return "Ready"
	case StatusPickedUp:
		return "PickedUp"
	case StatusReturned:
		return "Returned"
	case StatusHomeSafe:
		return "HomeSafe"
	case StatusDisputed:
		return "Disputed"
	case StatusDeclined:
		return "Declined"
	}
	return "Unknown"
}

// IsTerminal reports whether no further status transition is permitted.
// Archive/unarchive remain allowed in terminal states.
func (s ShareStatus) IsTerminal() bool {
	return s == StatusHomeSafe || s == StatusDisputed || s == StatusDeclined
}

// IsHappyPath reports whether s participates in the ordered happy path.
func (s ShareStatus) IsHappyPath() bool {
	return s >= StatusRequested && s <= StatusHomeSafe
}

// HappyPathIndex returns the zero-based position of s on the happy path,
// or -1 for Disputed/Declined where ordering is meaningless.
func (s ShareStatus) HappyPathIndex() int {
	if !s.IsHappyPath() {
		return -1
	}
	return int(s - StatusRequested)
}

// Next returns the following happy-path status, false at HomeSafe and for
// the out-of-band statuses.
func (s ShareStatus) Next() (ShareStatus, bool) {
	idx := s.HappyPathIndex()
	if idx < 0 || idx == len(HappyPath)-1 {
		return 0, false
	}
	return HappyPath[idx+1], true
}

// CanTransition reports whether from -> to is a legal status change:
// one forward step on the happy path, Declined from Requested, or Disputed
// from any non-terminal status.
func CanTransition(from, to ShareStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StatusDeclined {
		return from == StatusRequested
	}
	if to == StatusDisputed {
		return !from.IsTerminal()
	}
	next, ok := from.Next()
	return ok && next == to
}

// User is the embedded user profile, denormalized for display.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Book is the embedded book record of the lent copy.
type Book struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn,omitempty"`
}

// UserBookWithOwner is the lent copy together with its owning user.
type UserBookWithOwner struct {
	ID     int64  `json:"id"`
	UserID string `json:"userId"`
	BookID int64  `json:"bookId"`
	Status int    `json:"status"`
	Book   Book   `json:"book"`
	User   User   `json:"user"`
}

// Share is one loan transaction. The server owns the canonical record; the
// client holds a transient copy that is replaced wholesale after every
// mutation.
type Share struct {
	ID         int64       `json:"id"`
	UserBookID int64       `json:"userBookId"`
	Borrower   string      `json:"borrower"`
	ReturnDate *time.Time  `json:"returnDate"`
	Status     ShareStatus `json:"status"`
	IsDisputed bool        `json:"isDisputed"`
	DisputedBy string      `json:"disputedBy,omitempty"`

	// UserBook carries the owner's profile for both roles.
	UserBook UserBookWithOwner `json:"userBook"`
	// BorrowerUser is populated on lender-side listings only.
	BorrowerUser *User `json:"borrowerUser,omitempty"`
}

// OwnerID returns the lending user's ID.
func (s *Share) OwnerID() string {
	return s.UserBook.UserID
}

// RoleOf classifies userID against the share.
func (s *Share) RoleOf(userID string) (isOwner, isBorrower bool) {
	return s.OwnerID() == userID, s.Borrower == userID
}

// SortShares orders shares by status ascending, then by book title, the
// display order used by the share listings.
func SortShares(shares []*Share) {
	sort.SliceStable(shares, func(i, j int) bool {
		if shares[i].Status != shares[j].Status {
			return shares[i].Status < shares[j].Status
		}
		return strings.ToLower(shares[i].UserBook.Book.Title) < strings.ToLower(shares[j].UserBook.Book.Title)
	})
}
