// Package ffms provides CGO bindings to FFMS2 for frame-accurate video
// indexing and grayscale luminance extraction.
package ffms

/*
#cgo pkg-config: ffms2
#include <ffms.h>
#include <stdlib.h>
#include <string.h>

#define ERR_BUF_SIZE 1024

// Helper to create an error info struct with C-allocated buffer
static FFMS_ErrorInfo* create_error_info() {
	FFMS_ErrorInfo* err = (FFMS_ErrorInfo*)malloc(sizeof(FFMS_ErrorInfo));
	err->Buffer = (char*)malloc(ERR_BUF_SIZE);
	err->BufferSize = ERR_BUF_SIZE;
	err->Buffer[0] = '\0';
	return err;
}

// Helper to free error info struct
static void free_error_info(FFMS_ErrorInfo* err) {
	if (err) {
		free(err->Buffer);
		free(err);
	}
}

// Helper to get error message from FFMS_ErrorInfo
static const char* get_error_message(FFMS_ErrorInfo* err) {
	return err->Buffer;
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"
)

var initOnce sync.Once

// Init initializes the FFMS2 library. Safe to call multiple times.
func Init() {
	initOnce.Do(func() {
		C.FFMS_Init(0, 0)
	})
}

// VidIdx wraps an FFMS_Index pointer.
type VidIdx struct {
	ptr       *C.FFMS_Index
	videoPath string
}

// VidSrc wraps an FFMS_VideoSource pointer.
type VidSrc struct {
	ptr *C.FFMS_VideoSource
}

// VidInf contains the video properties the motion analyzer needs.
type VidInf struct {
	Width  uint32
	Height uint32
	FPSNum uint32
	FPSDen uint32
	Frames int
}

// NewVidIdx creates a new video index for the given file path.
func NewVidIdx(path string) (*VidIdx, error) {
	Init()

	errInfo := C.create_error_info()
	defer C.free_error_info(errInfo)

	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	indexer := C.FFMS_CreateIndexer(cPath, errInfo)
	if indexer == nil {
		return nil, fmt.Errorf("failed to create indexer: %s", C.GoString(C.get_error_message(errInfo)))
	}

	C.FFMS_TrackIndexSettings(indexer, -1, 1, 0)

	idx := C.FFMS_DoIndexing2(indexer, C.int(0), errInfo)
	if idx == nil {
		return nil, fmt.Errorf("failed to index: %s", C.GoString(C.get_error_message(errInfo)))
	}

	return &VidIdx{ptr: idx, videoPath: path}, nil
}

// Close releases the index resources.
func (v *VidIdx) Close() {
	if v.ptr != nil {
		C.FFMS_DestroyIndex(v.ptr)
		v.ptr = nil
	}
}

// GetVidInf retrieves video information from the index.
func GetVidInf(idx *VidIdx) (*VidInf, error) {
	if idx == nil || idx.ptr == nil {
		return nil, fmt.Errorf("nil index")
	}

	errInfo := C.create_error_info()
	defer C.free_error_info(errInfo)

	trackNum := C.FFMS_GetFirstTrackOfType(idx.ptr, C.FFMS_TYPE_VIDEO, errInfo)
	if trackNum < 0 {
		return nil, fmt.Errorf("no video track found: %s", C.GoString(C.get_error_message(errInfo)))
	}

	cPath := C.CString(idx.videoPath)
	defer C.free(unsafe.Pointer(cPath))

	src := C.FFMS_CreateVideoSource(cPath, C.int(trackNum), idx.ptr, 0, C.FFMS_SEEK_NORMAL, errInfo)
	if src == nil {
		return nil, fmt.Errorf("failed to create video source: %s", C.GoString(C.get_error_message(errInfo)))
	}
	defer C.FFMS_DestroyVideoSource(src)

	props := C.FFMS_GetVideoProperties(src)
	if props == nil {
		return nil, fmt.Errorf("failed to get video properties")
	}

	frame := C.FFMS_GetFrame(src, 0, errInfo)
	if frame == nil {
		return nil, fmt.Errorf("failed to get first frame: %s", C.GoString(C.get_error_message(errInfo)))
	}

	return &VidInf{
		Width:  uint32(frame.EncodedWidth),
		Height: uint32(frame.EncodedHeight),
		FPSNum: uint32(props.FPSNumerator),
		FPSDen: uint32(props.FPSDenominator),
		Frames: int(props.NumFrames),
	}, nil
}

// ThrVidSrc creates a threaded video source from an index.
func ThrVidSrc(idx *VidIdx, threads int) (*VidSrc, error) {
	if idx == nil || idx.ptr == nil {
		return nil, fmt.Errorf("nil index")
	}

	errInfo := C.create_error_info()
	defer C.free_error_info(errInfo)

	trackNum := C.FFMS_GetFirstTrackOfType(idx.ptr, C.FFMS_TYPE_VIDEO, errInfo)
	if trackNum < 0 {
		return nil, fmt.Errorf("no video track found: %s", C.GoString(C.get_error_message(errInfo)))
	}

	cPath := C.CString(idx.videoPath)
	defer C.free(unsafe.Pointer(cPath))

	src := C.FFMS_CreateVideoSource(cPath, C.int(trackNum), idx.ptr, C.int(threads), C.FFMS_SEEK_NORMAL, errInfo)
	if src == nil {
		return nil, fmt.Errorf("failed to create video source: %s", C.GoString(C.get_error_message(errInfo)))
	}

	return &VidSrc{ptr: src}, nil
}

// Close releases the video source resources.
func (v *VidSrc) Close() {
	if v.ptr != nil {
		C.FFMS_DestroyVideoSource(v.ptr)
		v.ptr = nil
	}
}

// ExtractGrayFrame extracts frame frameIdx's luminance (Y) plane into output,
// one byte per pixel, row-major, width*height bytes. FFMS2's planar YUV
// Y-plane is the luminance channel directly, so no color conversion is
// needed for 8-bit sources; higher bit-depth sources have their Y samples
// truncated to the top 8 bits.
func ExtractGrayFrame(src *VidSrc, frameIdx int, output []byte, inf *VidInf) error {
	if src == nil || src.ptr == nil {
		return fmt.Errorf("nil video source")
	}

	errInfo := C.create_error_info()
	defer C.free_error_info(errInfo)

	frame := C.FFMS_GetFrame(src.ptr, C.int(frameIdx), errInfo)
	if frame == nil {
		return fmt.Errorf("failed to get frame %d: %s", frameIdx, C.GoString(C.get_error_message(errInfo)))
	}

	width := int(inf.Width)
	height := int(inf.Height)
	if len(output) < width*height {
		return fmt.Errorf("output buffer too small: need %d, got %d", width*height, len(output))
	}

	stride := int(frame.Linesize[0])
	bytesPerSample := 1
	if stride >= width*2 {
		// Source decoded at higher bit depth; FFMS2 packs 2 bytes/sample
		// little-endian, the high byte carries the luminance value.
		bytesPerSample = 2
	}
	yData := unsafe.Slice((*byte)(unsafe.Pointer(frame.Data[0])), stride*height)

	dstOff := 0
	for row := 0; row < height; row++ {
		rowStart := row * stride
		if bytesPerSample == 1 {
			copy(output[dstOff:dstOff+width], yData[rowStart:rowStart+width])
		} else {
			for col := 0; col < width; col++ {
				output[dstOff+col] = yData[rowStart+col*2+1]
			}
		}
		dstOff += width
	}

	return nil
}

// CalcGrayFrameSize returns the buffer size needed for a single grayscale frame.
func CalcGrayFrameSize(w, h uint32) int {
	return int(w) * int(h)
}
