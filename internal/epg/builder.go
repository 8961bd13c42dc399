package epg

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanniew/hntv-live/internal/hntv"
)

// Builder orchestrates the fetch side of snapshot generation: one live-list
// call, then one EPG call per channel for "today" in UTC+8.
type Builder struct {
	client *hntv.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewBuilder creates a Builder backed by the given client.
func NewBuilder(client *hntv.Client, logger *slog.Logger) *Builder {
	return &Builder{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// BuildSnapshot fetches the live list and every channel's schedule for today
// and renders the XMLTV document. The returned document is always well-formed;
// the error reports whether the live-list fetch degraded it to the empty
// fallback. Per-channel EPG failures only drop that channel's programmes.
func (b *Builder) BuildSnapshot(ctx context.Context) (string, error) {
	channels, status, err := b.client.FetchLiveList(ctx)
	res := LiveResult{Channels: channels, Status: status, Err: err}
	if !res.OK() {
		b.logger.Warn("Live list fetch failed, building empty snapshot", "status", status, "error", err)
		return ToXMLTV(res, nil), fmt.Errorf("live list fetch failed (status %d): %w", status, errOrStatus(err, status))
	}

	dayStart := DayStart(b.now())
	programs := make(map[string][]hntv.Program, len(channels))
	for _, ch := range channels {
		cid := ch.CID.String()
		if cid == "" {
			continue
		}
		epg, epgStatus, err := b.client.FetchEPG(ctx, cid, dayStart)
		if err != nil || epgStatus != http.StatusOK {
			b.logger.Warn("EPG fetch failed, skipping channel programmes", "cid", cid, "status", epgStatus, "error", err)
			continue
		}
		programs[cid] = epg.Programs
	}

	b.logger.Info("Built snapshot", "channels", len(channels), "channels_with_epg", len(programs))
	return ToXMLTV(res, programs), nil
}

// BuildM3U fetches the live list and renders it as an M3U playlist. Failures
// degrade to the error-annotated header rather than an error return.
func (b *Builder) BuildM3U(ctx context.Context) string {
	channels, status, err := b.client.FetchLiveList(ctx)
	if err != nil || status != http.StatusOK {
		b.logger.Warn("Live list fetch failed for playlist", "status", status, "error", err)
	}
	return ToM3U(LiveResult{Channels: channels, Status: status, Err: err})
}

func errOrStatus(err error, status int) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("upstream status %d", status)
}
