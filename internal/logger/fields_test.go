package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFieldsSkipsBlank(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  provider  ", Value: "  openai  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "provider" || fields[0].String != "openai" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}
}

func TestWithFieldsNilLogger(t *testing.T) {
	enriched := WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}

	enriched.Info("does not panic")
}

func TestProviderFields(t *testing.T) {
	fields := ProviderFields("gemini", "")
	if len(fields) != 1 || fields[0].Key != FieldProvider {
		t.Fatalf("expected only provider field, got %+v", fields)
	}
}

func TestForStage(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)

	ForStage(zap.New(core), "a-1", "scoring").Debug("stage finished")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	if entries[0].LoggerName != "scoring" {
		t.Fatalf("expected logger name scoring, got %q", entries[0].LoggerName)
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldAnalysisID] != "a-1" || ctx[FieldStage] != "scoring" {
		t.Fatalf("unexpected context: %v", ctx)
	}
}
