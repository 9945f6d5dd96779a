// Package httpserver runs an http.Handler under a context: Run returns a
// function for errgroup.Go that serves until the context is cancelled and
// then drains in-flight requests for the configured shutdown timeout.
//
// LivenessHandler and ReadinessHandler back the /health/live and
// /health/ready probes; readiness reports each named dependency.
//
//	srv := httpserver.NewFromConfig(cfg, router, httpserver.WithLogger(log))
//	g.Go(srv.Run(ctx))
package httpserver
