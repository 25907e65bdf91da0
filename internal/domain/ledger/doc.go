// Package ledger models the remote ledger API (Moloni): its entities, the
// id sentinels its clients return, and one client port per resource.
//
// Resource clients never return transport errors. They return
// IDTransportFailure or IDPreconditionFailed in place of an id, and nil or
// empty values for lookups. IDError converts a sentinel into an error for
// callers that prefer error values.
package ledger
