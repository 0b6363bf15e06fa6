package jsonstore

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/davidkych/cursus-backend/internal/models"
)

func TestDecodeLogEntriesPassthrough(t *testing.T) {
	in := []models.LogEntry{{Timestamp: "2026-03-01T12:00:00", Base: "[info]", Message: "hi"}}
	got := decodeLogEntries(in)
	if len(got) != 1 || got[0].Message != "hi" {
		t.Fatalf("expected passthrough, got %+v", got)
	}
}

func TestDecodeLogEntriesFromDriverShapes(t *testing.T) {
	in := primitive.A{
		primitive.M{
			"timestamp":     "2026-03-01T12:00:00",
			"base":          "[info]",
			"message":       "first",
			"secondary_tag": "lcsd",
		},
		primitive.D{
			{Key: "timestamp", Value: "2026-03-01T12:01:00"},
			{Key: "base", Value: "[error]"},
			{Key: "message", Value: "second"},
		},
		"not an entry",
	}

	got := decodeLogEntries(in)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Message != "first" || got[0].SecondaryTag != "lcsd" {
		t.Fatalf("unexpected first entry: %+v", got[0])
	}
	if got[1].Base != "[error]" || got[1].Message != "second" {
		t.Fatalf("unexpected second entry: %+v", got[1])
	}
}

func TestDecodeLogEntriesUnknownShape(t *testing.T) {
	if got := decodeLogEntries(42); len(got) != 0 {
		t.Fatalf("expected empty slice for unknown shape, got %+v", got)
	}
}

func TestNowHKTIsUTCPlus8(t *testing.T) {
	_, offset := NowHKT().Zone()
	if offset != 8*60*60 {
		t.Fatalf("expected +08:00 offset, got %d", offset)
	}
}
