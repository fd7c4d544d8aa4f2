package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-recipes-backend/internal/config"
)

// keepGlobals restores the global provider and propagator after the test.
func keepGlobals(t *testing.T) {
	t.Helper()
	tp := otel.GetTracerProvider()
	prop := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	})
}

func otelCfg(service string, insecure bool) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    insecure,
		Endpoint:    "localhost:4317",
		ServiceName: service,
		SampleRatio: 1,
	}
}

func TestSetup_DisabledLeavesGlobals(t *testing.T) {
	keepGlobals(t)
	before := otel.GetTracerProvider()

	cfg := otelCfg("recipes", true)
	cfg.Enabled = false
	shutdown, err := Setup(context.Background(), cfg, "dev")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Fatal("disabled tracing replaced the global provider")
	}
}

func TestSetup_InstallsProvider(t *testing.T) {
	for _, insecure := range []bool{true, false} {
		keepGlobals(t)

		// The gRPC client dials lazily, so a dead endpoint and even a
		// canceled context still yield a working provider.
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		shutdown, err := Setup(ctx, otelCfg("recipes-api", insecure), "v1.4.0")
		if err != nil {
			t.Fatalf("insecure=%v: Setup: %v", insecure, err)
		}

		if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
			t.Fatalf("insecure=%v: provider is %T", insecure, otel.GetTracerProvider())
		}

		sctx, span := otel.Tracer("services/RecipeService").Start(context.Background(), "CreateRecipe",
			trace.WithSpanKind(trace.SpanKindInternal))
		carrier := propagation.MapCarrier{}
		otel.GetTextMapPropagator().Inject(sctx, carrier)
		span.End()
		if !strings.HasPrefix(carrier.Get("traceparent"), "00-") {
			t.Fatalf("insecure=%v: traceparent not injected: %v", insecure, carrier)
		}

		tctx, stop := context.WithTimeout(context.Background(), 250*time.Millisecond)
		_ = shutdown(tctx)
		stop()
	}
}

func TestSetup_FailuresKeepGlobals(t *testing.T) {
	cases := []struct {
		name  string
		patch func() (restore func())
	}{
		{
			name: "exporter",
			patch: func() func() {
				orig := newOTLPExporterFn
				newOTLPExporterFn = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) {
					return nil, errors.New("exporter down")
				}
				return func() { newOTLPExporterFn = orig }
			},
		},
		{
			name: "resource",
			patch: func() func() {
				orig := newServiceResourceFn
				newServiceResourceFn = func(context.Context, string, string) (*resource.Resource, error) {
					return nil, errors.New("bad resource")
				}
				return func() { newServiceResourceFn = orig }
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			keepGlobals(t)
			defer tc.patch()()

			tp := otel.GetTracerProvider()
			prop := otel.GetTextMapPropagator()
			if _, err := Setup(context.Background(), otelCfg("recipes", true), "v0"); err == nil {
				t.Fatal("want error")
			}
			if otel.GetTracerProvider() != tp || otel.GetTextMapPropagator() != prop {
				t.Fatal("globals changed on failure")
			}
		})
	}
}

func TestSampler_Ratios(t *testing.T) {
	cases := []struct {
		ratio float64
		want  string
	}{
		{1, "AlwaysOnSampler"},
		{2, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tc := range cases {
		desc := sampler(tc.ratio).Description()
		if !strings.Contains(desc, tc.want) {
			t.Fatalf("sampler(%v) = %q, want it to mention %q", tc.ratio, desc, tc.want)
		}
		if !strings.HasPrefix(desc, "ParentBased{") {
			t.Fatalf("sampler(%v) = %q, want parent-based", tc.ratio, desc)
		}
	}
}
