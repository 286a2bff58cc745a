// Package ports declares the abstract persistence contracts (spec §4.2,
// component C2) that every use case in internal/usecase depends on. No
// file in this package imports a database driver; concrete adapters
// live in internal/storage/postgres.
package ports

// CreateResponseKind is the result-kind for a create operation that
// can distinguish "created" from "already existed" without an error
// (spec §4.2).
type CreateResponseKind[T any] struct {
	Created    bool
	Record     T
	NotCreated *T
	Reason     string
}

// GetOrCreateResponseKind mirrors CreateResponseKind for idempotent
// get-or-create operations (spec §4.2).
type GetOrCreateResponseKind[T any] struct {
	Created bool
	Record  T
}

// FetchResponseKind is the result-kind for a single-record fetch.
type FetchResponseKind[T any] struct {
	Found bool
	Record T
}

// FetchManyResponseKind is the result-kind for a multi-record fetch,
// with an explicit paginated variant (spec §4.2).
type FetchManyResponseKind[T any] struct {
	Found     bool
	Paginated bool
	Records   []T
	Count     int64
	Skip      int64
	Size      int64
}

// UpdatingResponseKind is the result-kind for an update operation.
type UpdatingResponseKind[T any] struct {
	Updated    bool
	Record     T
	NotUpdated *T
	Reason     string
}

// DeletionResponseKind is the result-kind for a delete operation.
type DeletionResponseKind struct {
	Deleted    bool
	NotDeleted bool
	Reason     string
}
