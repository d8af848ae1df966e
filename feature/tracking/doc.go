// Package tracking implements the management surface over the status store.
//
// # Routes
//
//	GET    /                   flattened {Library, ISBN, Status} listing
//	POST   /libraries          {"systemid": "..."} registers a library
//	DELETE /libraries/:systemid
//	POST   /books              {"isbn": "..."} tracks a book at every library
//	DELETE /books/:isbn
//
// Invalid input answers 400, an unknown library 404 and any other failure 500,
// always with a {"description"} body.
package tracking
