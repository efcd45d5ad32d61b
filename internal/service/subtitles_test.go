package service

import (
	"strings"
	"testing"

	"dictophone-api/internal/model"
)

var subtitleSegments = []model.TranscriptionSegment{
	{RecordID: 1, Start: 0, End: 1.5, Text: "first line"},
	{RecordID: 1, Start: 1.5, End: 3, Text: "second line"},
}

func TestRenderSubtitlesSRT(t *testing.T) {
	for _, format := range []string{"srt", ""} {
		data, contentType, err := RenderSubtitles(subtitleSegments, format)
		if err != nil {
			t.Fatalf("format %q: %v", format, err)
		}
		if contentType != "text/srt" {
			t.Fatalf("format %q: unexpected content type %q", format, contentType)
		}

		body := string(data)
		first := strings.Index(body, "first line")
		second := strings.Index(body, "second line")
		if first < 0 || second < 0 {
			t.Fatalf("format %q: missing segment text in output:\n%s", format, body)
		}
		if first > second {
			t.Fatalf("format %q: segments out of order", format)
		}
	}
}

func TestRenderSubtitlesVTT(t *testing.T) {
	data, contentType, err := RenderSubtitles(subtitleSegments, "vtt")
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "text/vtt" {
		t.Fatalf("unexpected content type %q", contentType)
	}
	if !strings.HasPrefix(string(data), "WEBVTT") {
		t.Fatalf("output is not WebVTT:\n%s", data)
	}
}

func TestRenderSubtitlesUnknownFormat(t *testing.T) {
	if _, _, err := RenderSubtitles(subtitleSegments, "ass"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
