// Package server exposes ctoken over HTTP.
//
// API registers the cost, token and pricing endpoints on a mux; the caller
// adds metrics and health routes and wraps the result with Chain:
//
//	mux := http.NewServeMux()
//	server.NewAPI(client, logger).Register(mux)
//	handler := server.Chain(mux, server.Recovery(logger), server.RequestID, server.Logging(logger))
//	srv := server.NewServer(&cfg.Server, handler, logger)
//	err := srv.Start(ctx)
//
// Errors are returned as {"error": {"message", "type", "model"}} with 400 for
// invalid input, 404 for unknown models and 500 otherwise.
package server
