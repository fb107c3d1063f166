package backend

import (
	"strings"

	"github.com/tinyzimmer/go-gst/gst"
)

// classifyGstError buckets a GStreamer GError into a BackendErrorKind-shaped
// category, the same keyword-matching approach stream-capture's
// ClassifyGStreamerError uses for its network/codec/auth/unknown split, with
// the categories collapsed to what a local-file reader can actually hit.
func classifyGstError(gerr *gst.GError) string {
	if gerr == nil {
		return "unknown"
	}

	combined := strings.ToLower(gerr.Error() + " " + gerr.DebugString())

	demuxKeywords := []string{
		"no such file", "could not open", "stream doesn't contain enough data",
		"not-linked", "no element", "typefind",
	}
	for _, kw := range demuxKeywords {
		if strings.Contains(combined, kw) {
			return "demux"
		}
	}

	decodeKeywords := []string{
		"codec", "decode", "format", "negotiation", "caps",
		"h264", "h265", "not negotiated", "no decoder", "missing plugin",
	}
	for _, kw := range decodeKeywords {
		if strings.Contains(combined, kw) {
			return "decode"
		}
	}

	seekKeywords := []string{"seek"}
	for _, kw := range seekKeywords {
		if strings.Contains(combined, kw) {
			return "seek"
		}
	}

	return "unknown"
}
