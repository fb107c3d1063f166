package backend

import (
	"fmt"
	"log/slog"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// pipelineConfig mirrors stream-capture's PipelineConfig, adapted for
// file playback instead of RTSP ingest: a filesrc feeding a decodebin
// instead of an rtspsrc feeding a fixed depay/decode chain, because the
// container format (and therefore the right depayloader) isn't known until
// decodebin type-finds it.
type pipelineConfig struct {
	Path        string
	Type        DecodeKind
	OutputHost  bool
	StreamIndex int
}

// pipelineElements holds references needed for seeking, querying, and
// teardown, the same role stream-capture's PipelineElements plays.
type pipelineElements struct {
	Pipeline   *gst.Pipeline
	AppSink    *app.Sink
	Decodebin  *gst.Element
	UsingCUDA  bool
}

// createFilePipeline builds (but does not start) a
// filesrc ! decodebin ! [videoconvert|nvvideoconvert] ! appsink pipeline.
//
// decodebin's "pad-added" signal fires once per elementary stream once the
// container has been type-found and demuxed; we link only the video pad at
// position cfg.StreamIndex (video pads counted from 0 in the order they are
// added) and leave every other pad unlinked.
func createFilePipeline(cfg pipelineConfig) (*pipelineElements, error) {
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("backend: failed to create pipeline: %w", err)
	}

	filesrc, err := gst.NewElement("filesrc")
	if err != nil {
		return nil, fmt.Errorf("backend: failed to create filesrc: %w", err)
	}
	filesrc.SetProperty("location", cfg.Path)

	decodebin, err := gst.NewElement("decodebin")
	if err != nil {
		return nil, fmt.Errorf("backend: failed to create decodebin: %w", err)
	}

	usingCUDA := false
	var converter *gst.Element
	if cfg.Type == DecodeGPU {
		converter, err = gst.NewElement("nvvideoconvert")
		if err != nil {
			slog.Warn("backend: nvvideoconvert unavailable, falling back to software", "error", err)
			converter, err = gst.NewElement("videoconvert")
		} else {
			usingCUDA = true
			// decodebin autoplugs nvh264dec on its own when it's present in
			// the registry and ranks above avdec_h264; we only need to make
			// sure the downstream converter can accept its output.
			if !cfg.OutputHost {
				converter.SetProperty("nvbuf-memory-type", 0) // device memory
			}
		}
	} else {
		converter, err = gst.NewElement("videoconvert")
	}
	if err != nil {
		return nil, fmt.Errorf("backend: failed to create converter: %w", err)
	}
	converter.SetProperty("n-threads", 0)

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("backend: failed to create capsfilter: %w", err)
	}
	caps := gst.NewCapsFromString("video/x-raw,format=RGBA")
	capsfilter.SetProperty("caps", caps)

	sinkElem, err := gst.NewElement("appsink")
	if err != nil {
		return nil, fmt.Errorf("backend: failed to create appsink: %w", err)
	}
	sinkElem.SetProperty("sync", false)
	sinkElem.SetProperty("max-buffers", uint(1))
	sinkElem.SetProperty("drop", false)
	appSink := app.SinkFromElement(sinkElem)

	if err := pipeline.AddMany(filesrc, decodebin, converter, capsfilter, sinkElem); err != nil {
		return nil, fmt.Errorf("backend: failed to add elements: %w", err)
	}

	if err := filesrc.Link(decodebin); err != nil {
		return nil, fmt.Errorf("backend: failed to link filesrc to decodebin: %w", err)
	}
	if err := gst.ElementLinkMany(converter, capsfilter, sinkElem); err != nil {
		return nil, fmt.Errorf("backend: failed to link converter chain: %w", err)
	}

	elements := &pipelineElements{
		Pipeline:  pipeline,
		AppSink:   appSink,
		Decodebin: decodebin,
		UsingCUDA: usingCUDA,
	}

	videoPadsSeen := 0
	decodebin.Connect("pad-added", func(self *gst.Element, srcPad *gst.Pad) {
		caps := srcPad.GetCurrentCaps()
		if caps == nil || caps.GetSize() == 0 {
			return
		}
		if !isVideoCaps(caps) {
			return
		}

		// Only link the stream selected by StreamIndex; ignore the rest,
		// matching "the first video stream, or the one indicated by
		// configuration" from spec.md §4.7.
		if videoPadsSeen != cfg.StreamIndex {
			videoPadsSeen++
			return
		}
		videoPadsSeen++

		sinkPad := converter.GetStaticPad("sink")
		if sinkPad == nil {
			slog.Error("backend: converter has no sink pad")
			return
		}
		if ret := srcPad.Link(sinkPad); ret != gst.PadLinkOK {
			slog.Error("backend: failed to link decodebin pad", "ret", ret)
		}
	})

	return elements, nil
}

func isVideoCaps(caps *gst.Caps) bool {
	structure := caps.GetStructureAt(0)
	if structure == nil {
		return false
	}
	name := structure.Name()
	return name == "video/x-raw" || name == "video/x-raw(memory:NVMM)"
}
