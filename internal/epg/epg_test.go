package epg

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alanniew/hntv-live/internal/hntv"
)

func TestToM3UExactOutput(t *testing.T) {
	res := LiveResult{
		Status: 200,
		Channels: []hntv.Channel{
			{Name: "Ch1", CID: json.Number("1"), VideoStreams: []string{"http://x/1.m3u8"}},
		},
	}
	want := "#EXTM3U\n\n#EXTINF:-1 tvg-id=\"1\" tvg-name=\"Ch1\" group-title=\"河南卫视\",Ch1\nhttp://x/1.m3u8\n\n"
	if got := ToM3U(res); got != want {
		t.Errorf("ToM3U = %q, want %q", got, want)
	}
}

func TestToM3USkipsChannelsWithoutStreams(t *testing.T) {
	res := LiveResult{
		Status: 200,
		Channels: []hntv.Channel{
			{Name: "NoStream", CID: json.Number("2")},
			{Name: "Ch3", CID: json.Number("3"), Streams: []string{"http://x/3.m3u8"}},
		},
	}
	got := ToM3U(res)
	if strings.Contains(got, "NoStream") {
		t.Errorf("channel without streams should be skipped: %q", got)
	}
	if !strings.Contains(got, "http://x/3.m3u8") {
		t.Errorf("streams fallback field should be used: %q", got)
	}
}

func TestToM3UNamelessChannel(t *testing.T) {
	res := LiveResult{
		Status: 200,
		Channels: []hntv.Channel{
			{CID: json.Number("9"), VideoStreams: []string{"http://x/9.m3u8"}},
		},
	}
	got := ToM3U(res)
	if !strings.Contains(got, `tvg-name="Unknown",Unknown`) {
		t.Errorf("missing name should fall back to Unknown: %q", got)
	}
}

func TestToM3UFetchFailure(t *testing.T) {
	want := "#EXTM3U\n# Error: Failed to fetch data"
	if got := ToM3U(LiveResult{Status: 500}); got != want {
		t.Errorf("ToM3U on 500 = %q, want %q", got, want)
	}
	if got := ToM3U(LiveResult{Status: 200, Err: errors.New("connection refused")}); got != want {
		t.Errorf("ToM3U on fetch error = %q, want %q", got, want)
	}
}

func TestFormatEpochZero(t *testing.T) {
	if got := FormatEpoch(0); got != "19700101080000 +0800" {
		t.Errorf("FormatEpoch(0) = %q, want 19700101080000 +0800", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	if got := FormatTimestamp("1700000000"); got != "20231115061320 +0800" {
		t.Errorf("FormatTimestamp(1700000000) = %q, want 20231115061320 +0800", got)
	}
}

func TestFormatTimestampMalformed(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{14} \+0800$`)
	for _, raw := range []string{"", "not-a-number", "12.5h"} {
		got := FormatTimestamp(raw)
		if !pattern.MatchString(got) {
			t.Errorf("FormatTimestamp(%q) = %q, want match for %s", raw, got, pattern)
		}
	}
}

func TestDayStart(t *testing.T) {
	// 2023-11-14 22:13:20 UTC is already 2023-11-15 in UTC+8.
	now := time.Unix(1700000000, 0)
	if got := DayStart(now); got != 1699977600 {
		t.Errorf("DayStart = %d, want 1699977600", got)
	}
}

func TestToXMLTV(t *testing.T) {
	res := LiveResult{
		Status: 200,
		Channels: []hntv.Channel{
			{Name: "Ch1", CID: json.Number("1")},
			{Name: "NoCID"},
		},
	}
	programs := map[string][]hntv.Program{
		"1": {{Title: "News", BeginTime: json.Number("1700000000"), EndTime: json.Number("1700003600")}},
	}
	got := ToXMLTV(res, programs)

	if !strings.HasPrefix(got, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>") {
		t.Errorf("missing XML declaration: %q", got)
	}
	for _, want := range []string{
		`generator-info-name="hntv-live"`,
		`generator-info-url="https://github.com/AlanNiew"`,
		`<channel id="1"><display-name lang="zh">Ch1</display-name></channel>`,
		`<programme start="20231115061320 +0800" stop="20231115071320 +0800" channel="1"><title lang="zh">News</title></programme>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("ToXMLTV missing %q in %q", want, got)
		}
	}
	if strings.Contains(got, "NoCID") {
		t.Errorf("channel without cid should be skipped: %q", got)
	}
}

func TestToXMLTVFetchFailure(t *testing.T) {
	got := ToXMLTV(LiveResult{Status: 500}, nil)
	if got != EmptyDocument() {
		t.Errorf("ToXMLTV on failure = %q, want empty document %q", got, EmptyDocument())
	}
	if strings.Contains(got, "<channel") || strings.Contains(got, "<programme") {
		t.Errorf("empty document must have no channels or programmes: %q", got)
	}
}

func TestEmptyDocumentShape(t *testing.T) {
	got := EmptyDocument()
	if !strings.Contains(got, `<tv generator-info-name="hntv-live" generator-info-url="https://github.com/AlanNiew">`) {
		t.Errorf("unexpected empty document: %q", got)
	}
}
