package server

import (
	"context"

	"github.com/joseph-ayodele/fleet-telemetry/internal/services"
)

// WatchImports runs the import job once per settled burst of file events
// until ctx is done or events is closed. Paths queued while a run is in
// progress are folded into the next run.
func (s *Server) WatchImports(ctx context.Context, events <-chan string, req services.ProcessRequest) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-events:
			if !ok {
				return
			}
			n := 1 + drain(events)
			s.logger.Info("server.watch.triggered", "file", p, "events", n, "source", req.SourceFolder)
			resp := s.RunImport(ctx, req)
			if !resp.Success {
				s.logger.Error("server.watch.failed", "message", resp.Message)
				continue
			}
			s.logger.Info("server.watch.done", "message", resp.Message)
		}
	}
}

func drain(events <-chan string) int {
	n := 0
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return n
			}
			n++
		default:
			return n
		}
	}
}
