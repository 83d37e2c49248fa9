// Package fsapi is a small read-only client for the student-body portal API.
//
// It fetches the group datasets (protected /data and public /data/data.json),
// the per-user permission records (/user, inverted into per-group lists) and the
// AFSG payout requests. Authentication is a bearer token obtained with package
// auth; the client never logs in by itself.
//
// Every request is traced and counted through package instrumentation. Any
// non-2xx response is returned as *APIError without retrying.
package fsapi
