package service

import (
	"bytes"
	"fmt"
	"time"

	"github.com/asticode/go-astisub"

	"dictophone-api/internal/model"
)

// BuildSubtitles converts transcript segments into a subtitle document.
func BuildSubtitles(segments []model.TranscriptionSegment) *astisub.Subtitles {
	subtitles := astisub.NewSubtitles()

	for _, segment := range segments {
		item := &astisub.Item{
			StartAt: time.Duration(int(segment.Start*1000)) * time.Millisecond,
			EndAt:   time.Duration(int(segment.End*1000)) * time.Millisecond,
		}
		item.Lines = append(item.Lines, astisub.Line{Items: []astisub.LineItem{{Text: segment.Text}}})
		subtitles.Items = append(subtitles.Items, item)
	}

	return subtitles
}

// RenderSubtitles writes segments as SRT or WebVTT.
func RenderSubtitles(segments []model.TranscriptionSegment, format string) ([]byte, string, error) {
	subtitles := BuildSubtitles(segments)
	buf := &bytes.Buffer{}

	switch format {
	case "vtt":
		if err := subtitles.WriteToWebVTT(buf); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "text/vtt", nil
	case "srt", "":
		if err := subtitles.WriteToSRT(buf); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "text/srt", nil
	default:
		return nil, "", fmt.Errorf("unsupported subtitle format: %s", format)
	}
}
