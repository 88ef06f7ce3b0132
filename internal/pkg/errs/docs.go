// Package errs provides the typed errors shared across the fulfillment service.
//
// Every error type follows the same shape:
//   - a sentinel (ErrValueIsInvalid, ErrObjectNotFound, ...) usable with errors.Is
//   - a struct carrying the offending parameter and an optional cause
//   - New...Error and New...ErrorWithCause constructors
//   - Unwrap returning the sentinel
//
// VersionIsInvalidError is used for optimistic-concurrency conflicts, where a
// conditional write found the row in a different state than the caller read.
package errs
