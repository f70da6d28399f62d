// Package types defines the record shapes, repository interfaces, and
// standard errors for the projectsteps store.
//
// Records are plain values. Relationships between them are expressed only
// through id fields (a Step's ProjectID, an ImageAttachment's Owner) and are
// resolved by query, never by pointer.
package types
