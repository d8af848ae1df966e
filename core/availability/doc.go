// Package availability talks to the calil library availability API.
//
// A single batched GET /check carries every tracked ISBN and every tracked library
// system id. The service answers with continue=1 while it is still querying library
// catalogues, so the client re-issues the identical query at a fixed interval until
// continue=0 or the attempt budget is spent. Running out of attempts is not an error:
// the last response is returned with Complete=false and the caller decides how loudly
// to report it.
//
// # Usage
//
//	client := availability.NewClient(cfg.Calil, logger)
//	report, err := client.Poll(ctx, mapset.NewSet(isbns...), mapset.NewSet(libraries...))
package availability
