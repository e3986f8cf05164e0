// Package couchdb implements the document, view and admin stores on top of
// the kivik CouchDB client.
//
// A Client is bound to one database. Requests carry basic-auth credentials
// and pass through an HTTP transport that applies the optional token bucket
// and the optional metrics instrumentation. Failures become *APIError
// values that unwrap to the domain error for their status code, so callers
// can test them with errors.Is.
package couchdb
