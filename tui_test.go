package main

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateKeepsMultibyteRunesIntact(t *testing.T) {
	text := "मार्केट ने Buy-side Liquidity sweep की है और RSI Bearish Divergence दिखा रहा है"
	for width := 2; width < 40; width++ {
		got := truncate(text, width)
		if !utf8.ValidString(got) {
			t.Fatalf("width %d: truncation split a rune: %q", width, got)
		}
		if !strings.HasSuffix(got, "…") {
			t.Fatalf("width %d: missing ellipsis: %q", width, got)
		}
	}
}

func TestTruncateShortTextUnchanged(t *testing.T) {
	if got := truncate("BUY", 10); got != "BUY" {
		t.Errorf("got %q, want unchanged", got)
	}
	if got := truncate("whatever", 1); got != "whatever" {
		t.Errorf("width 1: got %q, want unchanged", got)
	}
}

func TestWrapTextNeverExceedsWidth(t *testing.T) {
	lines := wrapText("one two three four five six seven", 9)
	for _, line := range lines {
		if len(line) > 9 {
			t.Errorf("line %q exceeds width", line)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six seven" {
		t.Errorf("words lost: %v", lines)
	}
}
