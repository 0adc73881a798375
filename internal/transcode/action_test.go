package transcode

import (
	"errors"
	"strings"
	"testing"

	"burnaudio/internal/textutil"
)

func TestClassify(t *testing.T) {
	tests := map[string]Action{
		"AAC audio file":           Reencode,
		"aac AUDIO file":           Reencode,
		"Purchased AAC audio file": Reencode,
		"MPEG audio file":          CopyThrough,
		"Apple Lossless":           CopyThrough,
		"":                         CopyThrough,
	}
	for kind, want := range tests {
		if got := Classify(kind); got != want {
			t.Errorf("Classify(%q) = %s, want %s", kind, got, want)
		}
	}
}

func TestBitrate(t *testing.T) {
	for tier, want := range map[string]int{"low": 64, "med": 128, "high": 192, "HIGH": 192} {
		got, err := Bitrate(tier)
		if err != nil || got != want {
			t.Errorf("Bitrate(%q) = %d, %v; want %d", tier, got, err, want)
		}
	}
	if _, err := Bitrate("ultra"); !errors.Is(err, ErrUnknownQuality) {
		t.Fatalf("expected ErrUnknownQuality, got %v", err)
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		artist, title string
		number        int
		ext           string
		want          string
	}{
		{"Band", "Song", 3, "mp3", "Band - Song - 3.mp3"},
		{"AC/DC", "Hells Bells", 1, ".mp3", "AC-DC - Hells Bells - 1.mp3"},
		{"Who?", "What: Now", 12, "m4a", "Who - What- Now - 12.m4a"},
	}
	for _, tc := range tests {
		if got := OutputName(tc.artist, tc.title, tc.number, tc.ext); got != tc.want {
			t.Errorf("OutputName(%q, %q, %d, %q) = %q, want %q", tc.artist, tc.title, tc.number, tc.ext, got, tc.want)
		}
	}
}

func TestOutputNameKeepsTrackNumberWhenLong(t *testing.T) {
	title := strings.Repeat("x", 250)
	first := OutputName("Band", title, 1, "mp3")
	second := OutputName("Band", title, 2, "mp3")
	if first == second {
		t.Fatalf("distinct track numbers produced the same name %q", first)
	}
	if !strings.HasSuffix(first, " - 1.mp3") || !strings.HasSuffix(second, " - 2.mp3") {
		t.Fatalf("track suffix lost: %q / %q", first, second)
	}
	if len(first) > textutil.MaxFileNameBytes {
		t.Fatalf("name is %d bytes, limit %d", len(first), textutil.MaxFileNameBytes)
	}
}

func TestOutputExt(t *testing.T) {
	if got := OutputExt(Reencode, "/a/b.m4a"); got != "mp3" {
		t.Fatalf("reencode ext = %q", got)
	}
	if got := OutputExt(CopyThrough, "/a/b.FLAC"); got != "flac" {
		t.Fatalf("copy ext = %q", got)
	}
}
