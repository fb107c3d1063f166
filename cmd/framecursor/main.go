// Command framecursor is a small diagnostic CLI over the videoframe
// package: open a file, print its discovered geometry and timing, then
// either walk frames sequentially or jump straight to a seek target.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/e7canasta/videoframe"
	"github.com/e7canasta/videoframe/internal/config"
)

const defaultConfigPath = "config/framecursor.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	filePath := flag.String("file", "", "video file to open (overrides sources[0] in config)")
	seekMicros := flag.Int64("seek", -1, "seek to this microsecond timestamp before reading, or -1 to skip")
	seekFrame := flag.Int64("seek-frame", -1, "seek to this frame index before reading (overrides -seek), or -1 to skip")
	count := flag.Int("count", 5, "number of frames to read and report after opening/seeking")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Warn("framecursor: no usable config file, falling back to flag defaults", "error", err)
		cfg = &config.Config{Decoder: config.DecoderConfig{BufferLength: 10, Type: "software"}}
	}

	path := *filePath
	if path == "" && len(cfg.Sources) > 0 {
		path = cfg.Sources[0].Path
	}
	if path == "" {
		slog.Error("framecursor: no file given (-file flag or sources[0] in config)")
		os.Exit(1)
	}

	opts := videoframe.DecoderOptions{
		BufferLength: cfg.Decoder.BufferLength,
		OutputHost:   cfg.Decoder.OutputHost,
		StreamIndex:  cfg.Decoder.StreamIndex,
	}
	if cfg.Decoder.Type == "cuda" {
		opts.Type = videoframe.Cuda
	}

	manager := videoframe.NewManager()
	stream, err := manager.GetStream(path, opts)
	if err != nil {
		slog.Error("framecursor: failed to open stream", "path", path, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := manager.ReleaseStream(path); err != nil {
			slog.Error("framecursor: failed to release stream", "path", path, "error", err)
		}
	}()

	slog.Info("framecursor: stream opened",
		"path", path,
		"width", stream.Width(),
		"height", stream.Height(),
		"aspect_ratio", stream.AspectRatio(),
		"frame_rate", stream.FrameRate().String(),
		"total_frames", stream.TotalFrames(),
		"total_duration_us", stream.Duration(),
	)

	switch {
	case *seekFrame >= 0:
		if err := stream.SeekFrame(*seekFrame); err != nil {
			slog.Error("framecursor: seek_frame failed", "frame", *seekFrame, "error", err)
			os.Exit(1)
		}
	case *seekMicros >= 0:
		if err := stream.Seek(*seekMicros); err != nil {
			slog.Error("framecursor: seek failed", "time_us", *seekMicros, "error", err)
			os.Exit(1)
		}
	}

	for i := 0; i < *count; i++ {
		frame, err := stream.GetNextFrame()
		if err != nil {
			if err == videoframe.ErrEndOfStream {
				slog.Info("framecursor: end of stream reached", "frames_read", i)
				break
			}
			slog.Error("framecursor: read failed", "error", err)
			os.Exit(1)
		}

		slog.Info("framecursor: frame",
			"index", frame.Index(),
			"time_us", frame.Time(),
			"width", frame.Width(),
			"height", frame.Height(),
		)
		frame.Release()
	}
}
