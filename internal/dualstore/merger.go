package dualstore

// Pagination is the caller-supplied window for list reads.
type Pagination struct {
	Page  int `form:"page" json:"page"`
	Limit int `form:"limit" json:"limit"`
}

// Normalize clamps the window to sane values (page >= 1, 1 <= limit <= 100).
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return p
}

// Skip returns the offset into the authoritative store's result set.
func (p Pagination) Skip() int { return (p.Page - 1) * p.Limit }

// PageInfo reports the window actually served. Total and Pages come from the
// authoritative store only, never from a union of both.
type PageInfo struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPageInfo computes the page count as ceil(total/limit).
func NewPageInfo(p Pagination, total int64) PageInfo {
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return PageInfo{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

// MergeList returns the rows of the mode's authoritative store. List reads
// are never a union: in dual mode the document store alone drives paging,
// sorting and counting. This is a deliberate simplification, preserved.
func MergeList[T any](mode Mode, mongoRows, mysqlRows []T) []T {
	if mode.Authoritative() == StoreMySQL {
		return mysqlRows
	}
	return mongoRows
}

// MergeSingle folds a correlation into one record. The authoritative side is
// primary; the secondary side only contributes its store-local id as an
// auxiliary field and never overwrites a primary field. When the primary
// side is absent the secondary record is returned as-is. The second return
// is false when neither store had the record.
func MergeSingle[T Entity](mode Mode, corr Correlation[T]) (T, bool) {
	var zero T
	primary, secondary := corr.Mongo, corr.MySQL
	if mode.Authoritative() == StoreMySQL {
		primary, secondary = corr.MySQL, corr.Mongo
	}
	if primary == zero {
		if secondary == zero {
			return zero, false
		}
		return secondary, true
	}
	if secondary != zero {
		if primary.DocumentID() == "" {
			primary.SetDocumentID(secondary.DocumentID())
		}
		if primary.RelationalID() == 0 {
			primary.SetRelationalID(secondary.RelationalID())
		}
	}
	return primary, true
}
