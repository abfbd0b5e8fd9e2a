package service

import (
	"time"

	"fittrack/backend/internal/domain"
	"fittrack/backend/internal/dualstore"
)

// stampNew produces the creation timestamp for a new record, truncated to
// millisecond precision so both stores persist the exact same instant. The
// timestamp is the cross-store correlation key and is set exactly once,
// before any store is written.
func stampNew() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// ownerFrom turns the authenticated principal into an owner reference valid
// for the configured mode. The relational id is resolved strictly: when the
// relational store is active and no numeric user id can be determined, the
// ResolutionError propagates and fails the request. The document id is only
// mandatory when the document store is the sole store; in dual mode a
// missing document id degrades to a failed mongo write, which the
// coordinator absorbs.
func ownerFrom(mode dualstore.Mode, p dualstore.Principal) (domain.StoreRef, error) {
	ref := p.Ref()
	if mode.UsesMySQL() && ref.MySQLID == 0 {
		id, err := dualstore.ResolveRelationalUserID(p)
		if err != nil {
			return domain.StoreRef{}, err
		}
		ref.MySQLID = id
	}
	if mode == dualstore.ModeMongo && ref.MongoID == "" {
		return domain.StoreRef{}, &domain.ResolutionError{Reason: "principal carries no document-store user id"}
	}
	return ref, nil
}
