// Package logging builds the slog handlers used across ctoken.
//
// Three output formats are supported: "json" and "text" use the standard
// library handlers, "console" uses tint for colorized output on terminals.
// Every handler is wrapped so that:
//
//   - request_id, model and source values stored in the context, plus the
//     active OpenTelemetry trace and span IDs, are added to each record
//   - API keys, bearer tokens, and any configured pattern are masked
//
// # Usage
//
//	logger, err := logging.New(&cfg.Telemetry.Logging, os.Stderr)
//	if err != nil {
//	    return err
//	}
//	ctx = logging.WithRequestID(ctx, uuid.NewString())
//	logger.InfoContext(ctx, "pricing refreshed", "entries", 42)
//
// Attributes whose key names a credential ("api_key", "authorization",
// "secret") are masked regardless of their value. Keys containing "tokens"
// are exempt so token counts stay readable.
package logging
