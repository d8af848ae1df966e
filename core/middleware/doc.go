// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: rejects requests whose X-API-Key header does not match the configured key.
//   - rayid: tags every request with a ray id, stored in Locals and echoed in
//     the X-Ray-ID response header, so log lines of one request can be correlated.
package middleware
