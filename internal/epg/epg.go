// Package epg converts HNTV listing data into M3U playlists and XMLTV
// documents. The converters are pure; Builder does the upstream fetch loop.
package epg

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alanniew/hntv-live/internal/hntv"
)

const (
	generatorName = "hntv-live"
	generatorURL  = "https://github.com/AlanNiew"
	groupTitle    = "河南卫视"
)

// epgTimeLayout renders "YYYYMMDDHHMMSS +0800" when formatted in UTC+8.
const epgTimeLayout = "20060102150405 -0700"

// cst is the fixed UTC+8 zone all EPG times are rendered in, regardless of the
// host's local timezone.
var cst = time.FixedZone("UTC+8", 8*60*60)

// LiveResult carries the outcome of a live-list fetch into the converters.
type LiveResult struct {
	Channels []hntv.Channel
	Status   int
	Err      error
}

// OK reports whether the fetch succeeded with a 200.
func (r LiveResult) OK() bool {
	return r.Err == nil && r.Status == 200
}

// FormatTimestamp formats a Unix-seconds string as an XMLTV time in UTC+8.
// A malformed value falls back to the current time in the same pattern.
func FormatTimestamp(raw string) string {
	ts, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return FormatEpoch(time.Now().Unix())
	}
	return FormatEpoch(ts)
}

// FormatEpoch formats a Unix timestamp as an XMLTV time in UTC+8.
func FormatEpoch(ts int64) string {
	return time.Unix(ts, 0).In(cst).Format(epgTimeLayout)
}

// DayStart returns the Unix timestamp of midnight in UTC+8 for now's day.
func DayStart(now time.Time) int64 {
	local := now.In(cst)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, cst).Unix()
}

// ToM3U renders the live list as an M3U playlist. Channels without any stream
// URL are skipped. A failed fetch yields a header-only document with an error
// comment instead of an error.
func ToM3U(r LiveResult) string {
	if !r.OK() {
		return "#EXTM3U\n# Error: Failed to fetch data"
	}

	var b strings.Builder
	b.WriteString("#EXTM3U\n\n")
	for _, ch := range r.Channels {
		urls := ch.StreamURLs()
		if len(urls) == 0 {
			continue
		}
		name := ch.Name
		if name == "" {
			name = "Unknown"
		}
		fmt.Fprintf(&b, "#EXTINF:-1 tvg-id=%q tvg-name=%q group-title=%q,%s\n", ch.CID.String(), name, groupTitle, name)
		b.WriteString(urls[0] + "\n\n")
	}
	return b.String()
}

// XMLTV document structure (tv/channel/programme).
type tvDoc struct {
	XMLName      xml.Name      `xml:"tv"`
	Generator    string        `xml:"generator-info-name,attr"`
	GeneratorURL string        `xml:"generator-info-url,attr"`
	Channels     []channelEl   `xml:"channel"`
	Programmes   []programmeEl `xml:"programme"`
}

type channelEl struct {
	ID          string    `xml:"id,attr"`
	DisplayName localText `xml:"display-name"`
}

type programmeEl struct {
	Start   string    `xml:"start,attr"`
	Stop    string    `xml:"stop,attr"`
	Channel string    `xml:"channel,attr"`
	Title   localText `xml:"title"`
}

type localText struct {
	Lang string `xml:"lang,attr"`
	Text string `xml:",chardata"`
}

// ToXMLTV renders channels and their per-channel programs as an XMLTV
// document. programs is keyed by channel id; channels missing from the map get
// no programme elements. A failed fetch yields a minimal empty tv document.
func ToXMLTV(r LiveResult, programs map[string][]hntv.Program) string {
	doc := tvDoc{Generator: generatorName, GeneratorURL: generatorURL}
	if r.OK() {
		for _, ch := range r.Channels {
			cid := ch.CID.String()
			if cid == "" {
				continue
			}
			name := ch.Name
			if name == "" {
				name = "Unknown"
			}
			doc.Channels = append(doc.Channels, channelEl{
				ID:          cid,
				DisplayName: localText{Lang: "zh", Text: name},
			})
			for _, prog := range programs[cid] {
				title := prog.Title
				if title == "" {
					title = "Unknown"
				}
				doc.Programmes = append(doc.Programmes, programmeEl{
					Start:   FormatTimestamp(prog.BeginTime.String()),
					Stop:    FormatTimestamp(prog.EndTime.String()),
					Channel: cid,
					Title:   localText{Lang: "zh", Text: title},
				})
			}
		}
	}
	return marshalDoc(doc)
}

// EmptyDocument returns the minimal valid XMLTV document used as the fallback
// whenever no snapshot can be produced or read.
func EmptyDocument() string {
	return marshalDoc(tvDoc{Generator: generatorName, GeneratorURL: generatorURL})
}

func marshalDoc(doc tvDoc) string {
	out, err := xml.Marshal(doc)
	if err != nil {
		// Unreachable with these static types; keep a well-formed document anyway.
		return xml.Header + `<tv generator-info-name="hntv-live" generator-info-url="https://github.com/AlanNiew"></tv>`
	}
	return xml.Header + string(out)
}
