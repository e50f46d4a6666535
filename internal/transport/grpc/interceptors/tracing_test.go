package interceptors

import (
	"testing"

	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
)

func TestTracingServerOptionBuildsServer(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	opt := TracingServerOption(TracingOptions{
		TracerProvider: tp,
		Propagators:    propagation.TraceContext{},
	})
	if opt == nil {
		t.Fatal("expected a server option")
	}

	server := grpc.NewServer(opt)
	server.Stop()
}
