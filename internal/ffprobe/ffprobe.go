// Package ffprobe provides functions for extracting media information using ffprobe.
package ffprobe

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// MediaInfo contains basic media information.
type MediaInfo struct {
	Duration    float64
	Width       int64
	Height      int64
	TotalFrames uint64
}

// VideoProperties contains video stream properties.
type VideoProperties struct {
	Width        uint32
	Height       uint32
	DurationSecs float64
}

// ffprobeOutput represents the JSON output from ffprobe.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int64  `json:"width"`
	Height    int64  `json:"height"`
	Channels  int    `json:"channels"`
	NbFrames  string `json:"nb_frames"`
	PixFmt    string `json:"pix_fmt"`
}

// parseFFprobeOutput parses raw ffprobe JSON output.
func parseFFprobeOutput(data []byte) (*ffprobeOutput, error) {
	var result ffprobeOutput
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return &result, nil
}

// runFFprobe executes ffprobe and returns the parsed output.
func runFFprobe(inputPath string) (*ffprobeOutput, error) {
	cmd := exec.Command("ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseFFprobeOutput(output)
}

// extractMediaInfo pulls basic media information out of parsed ffprobe output.
func extractMediaInfo(probe *ffprobeOutput) *MediaInfo {
	info := &MediaInfo{}

	// Parse duration from format
	if probe.Format.Duration != "" {
		if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			info.Duration = d
		}
	}

	// Find video stream
	for _, stream := range probe.Streams {
		if stream.CodecType == "video" {
			info.Width = stream.Width
			info.Height = stream.Height
			if stream.NbFrames != "" {
				if frames, err := strconv.ParseUint(stream.NbFrames, 10, 64); err == nil {
					info.TotalFrames = frames
				}
			}
			break
		}
	}

	return info
}

// GetMediaInfo returns basic media information for a file.
func GetMediaInfo(inputPath string) (*MediaInfo, error) {
	probe, err := runFFprobe(inputPath)
	if err != nil {
		return nil, err
	}
	return extractMediaInfo(probe), nil
}

// extractVideoProperties pulls the first video stream's properties out of
// parsed ffprobe output.
func extractVideoProperties(probe *ffprobeOutput, inputPath string) (*VideoProperties, error) {
	// Parse duration
	var durationSecs float64
	if probe.Format.Duration != "" {
		if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			durationSecs = d
		} else {
			return nil, fmt.Errorf("failed to parse duration")
		}
	}

	// Find video stream
	var videoStream *ffprobeStream
	for i := range probe.Streams {
		if probe.Streams[i].CodecType == "video" {
			videoStream = &probe.Streams[i]
			break
		}
	}

	if videoStream == nil {
		return nil, fmt.Errorf("no video stream found in %s", inputPath)
	}

	if videoStream.Width <= 0 || videoStream.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions in %s: %dx%d", inputPath, videoStream.Width, videoStream.Height)
	}

	return &VideoProperties{
		Width:        uint32(videoStream.Width),
		Height:       uint32(videoStream.Height),
		DurationSecs: durationSecs,
	}, nil
}

// GetVideoProperties returns the first video stream's properties.
func GetVideoProperties(inputPath string) (*VideoProperties, error) {
	probe, err := runFFprobe(inputPath)
	if err != nil {
		return nil, err
	}
	return extractVideoProperties(probe, inputPath)
}

// extractAudioChannels pulls per-stream channel counts out of parsed
// ffprobe output.
func extractAudioChannels(probe *ffprobeOutput) []uint32 {
	var channels []uint32
	for _, stream := range probe.Streams {
		if stream.CodecType == "audio" && stream.Channels > 0 {
			channels = append(channels, uint32(stream.Channels))
		}
	}
	return channels
}

// GetAudioChannels returns the channel count for each audio stream.
func GetAudioChannels(inputPath string) ([]uint32, error) {
	probe, err := runFFprobe(inputPath)
	if err != nil {
		return nil, err
	}
	return extractAudioChannels(probe), nil
}

// GetVideoCodecName returns the video codec name for a file.
func GetVideoCodecName(inputPath string) (string, error) {
	probe, err := runFFprobe(inputPath)
	if err != nil {
		return "", err
	}

	for _, stream := range probe.Streams {
		if stream.CodecType == "video" {
			return stream.CodecName, nil
		}
	}

	return "", fmt.Errorf("no video stream found in %s", inputPath)
}
