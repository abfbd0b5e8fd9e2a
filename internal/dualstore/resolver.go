package dualstore

import (
	"strconv"

	"fittrack/backend/internal/domain"
)

// Principal is the authenticated caller as populated by the auth layer. The
// token does not natively carry the relational numeric key, so the fields
// below are best-effort: whichever of them the auth layer could fill.
type Principal struct {
	ID       string      // subject claim; a document hex id in mongo/dual deployments
	Username string      //
	Role     domain.Role //
	MongoID  string      // document-store user id, when known
	MySQLID  uint        // relational user id, when the token carried one
	// CurrentUser is the full user record loaded during request
	// authentication, when the auth layer had to fetch it anyway.
	CurrentUser *domain.User
}

// Ref returns the principal's identity as an owner reference. The relational
// side is filled opportunistically from whatever the principal carries.
func (p Principal) Ref() domain.StoreRef {
	ref := domain.StoreRef{MongoID: p.MongoID, MySQLID: p.MySQLID}
	if ref.MongoID == "" && IsDocumentID(p.ID) {
		ref.MongoID = p.ID
	}
	if ref.MySQLID == 0 && p.CurrentUser != nil {
		ref.MySQLID = p.CurrentUser.MySQLID
	}
	if ref.MongoID == "" && p.CurrentUser != nil {
		ref.MongoID = p.CurrentUser.MongoID
	}
	return ref
}

// ResolveRelationalUserID determines the relational user id of p. It checks,
// in order: an explicit relational id, the id of an embedded current-user
// record, and finally the subject claim parsed as a number. When none is
// present it fails with a ResolutionError, which propagates and fails the
// whole request: no meaningful relational operation can proceed without it.
func ResolveRelationalUserID(p Principal) (uint, error) {
	if p.MySQLID != 0 {
		return p.MySQLID, nil
	}
	if p.CurrentUser != nil && p.CurrentUser.MySQLID != 0 {
		return p.CurrentUser.MySQLID, nil
	}
	if n, err := strconv.ParseUint(p.ID, 10, 32); err == nil && n != 0 {
		return uint(n), nil
	}
	return 0, &domain.ResolutionError{Reason: "principal carries no relational user id"}
}
