package motion

import (
	"fmt"
	"image"

	"github.com/fieldlapse/fieldlapse/internal/errors"
	"github.com/fieldlapse/fieldlapse/internal/ffms"
	"github.com/fieldlapse/fieldlapse/internal/ffprobe"
)

// FrameSource sequentially decodes a video file's luminance planes for
// motion analysis. It wraps FFMS2 (internal/ffms) for frame-accurate
// access to arbitrary containers, after a cheap ffprobe pre-flight check.
type FrameSource struct {
	path   string
	codec  string
	idx    *ffms.VidIdx
	src    *ffms.VidSrc
	inf    *ffms.VidInf
	cursor int
	buf    []byte
}

// OpenFrameSource opens path for sequential grayscale frame decoding.
// It first runs a cheap ffprobe pre-flight check: if ffprobe cannot read a
// duration and at least one video stream, the file is rejected before the
// more expensive FFMS2 index is built.
func OpenFrameSource(path string) (*FrameSource, error) {
	info, err := ffprobe.GetMediaInfo(path)
	if err != nil || info.Width <= 0 || info.Height <= 0 || info.Duration <= 0 {
		return nil, errors.NewSourceOpenError(path, err)
	}
	codec, err := ffprobe.GetVideoCodecName(path)
	if err != nil {
		return nil, errors.NewSourceOpenError(path, err)
	}

	idx, err := ffms.NewVidIdx(path)
	if err != nil {
		return nil, errors.NewSourceOpenError(path, err)
	}

	inf, err := ffms.GetVidInf(idx)
	if err != nil {
		idx.Close()
		return nil, errors.NewSourceOpenError(path, err)
	}

	src, err := ffms.ThrVidSrc(idx, 0)
	if err != nil {
		idx.Close()
		return nil, errors.NewSourceOpenError(path, err)
	}

	return &FrameSource{
		path:  path,
		codec: codec,
		idx:   idx,
		src:   src,
		inf:   inf,
		buf:   make([]byte, ffms.CalcGrayFrameSize(inf.Width, inf.Height)),
	}, nil
}

// Path returns the source file path.
func (f *FrameSource) Path() string { return f.path }

// Codec returns the source video stream's codec name, e.g. "h264".
func (f *FrameSource) Codec() string { return f.codec }

// FPS returns the video's frame rate.
func (f *FrameSource) FPS() float64 {
	if f.inf.FPSDen == 0 {
		return 0
	}
	return float64(f.inf.FPSNum) / float64(f.inf.FPSDen)
}

// FrameCount returns the total decodable frame count.
func (f *FrameSource) FrameCount() int { return f.inf.Frames }

// Width returns the frame width in pixels.
func (f *FrameSource) Width() int { return int(f.inf.Width) }

// Height returns the frame height in pixels.
func (f *FrameSource) Height() int { return int(f.inf.Height) }

// NextFrame decodes and returns the next grayscale frame, advancing the
// internal cursor. Returns (nil, nil) once the cursor reaches FrameCount.
func (f *FrameSource) NextFrame() (*image.Gray, error) {
	if f.cursor >= f.inf.Frames {
		return nil, nil
	}

	if err := ffms.ExtractGrayFrame(f.src, f.cursor, f.buf, f.inf); err != nil {
		return nil, fmt.Errorf("decode frame %d: %w", f.cursor, err)
	}
	f.cursor++

	img := &image.Gray{
		Pix:    append([]byte(nil), f.buf...),
		Stride: int(f.inf.Width),
		Rect:   image.Rect(0, 0, int(f.inf.Width), int(f.inf.Height)),
	}
	return img, nil
}

// Close releases the underlying FFMS2 resources.
func (f *FrameSource) Close() {
	if f.src != nil {
		f.src.Close()
	}
	if f.idx != nil {
		f.idx.Close()
	}
}
