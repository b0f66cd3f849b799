package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/youpy/go-riff"
	"github.com/youpy/go-wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xfffe
)

// LoadWAV reads a PCM wav file into memory.
func LoadWAV(file string) (*PCMData, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pcm, err := DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return pcm, nil
}

// DecodeWAV decodes a PCM wav stream. Loop points are taken from the first
// loop of a smpl chunk when there is one.
func DecodeWAV(r riff.RIFFReader) (*PCMData, error) {
	format, err := wav.NewReader(r).Format()
	if err != nil {
		return nil, err
	}
	if format.AudioFormat != wavFormatPCM && format.AudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: wav format tag %d", ErrBadFormat, format.AudioFormat)
	}

	chunks, err := riff.NewReader(r).Read()
	if err != nil {
		return nil, err
	}
	var data, smpl []byte
	for _, chunk := range chunks.Chunks {
		switch {
		case bytes.Equal(chunk.ChunkID, []byte("data")):
			if data, err = readChunk(chunk); err != nil {
				return nil, err
			}
		case bytes.Equal(chunk.ChunkID, []byte("smpl")):
			if smpl, err = readChunk(chunk); err != nil {
				return nil, err
			}
		}
	}
	if data == nil {
		return nil, fmt.Errorf("%w: missing data chunk", ErrBadFormat)
	}

	pcm, err := NewPCMData(int(format.NumChannels), int(format.SampleRate), int(format.BitsPerSample), data)
	if err != nil {
		return nil, err
	}
	if start, end, ok := parseSampleLoop(smpl); ok {
		pcm.SetLoop(start, end, true)
	}
	return pcm, nil
}

func readChunk(chunk *riff.Chunk) ([]byte, error) {
	buf := make([]byte, chunk.ChunkSize)
	if _, err := io.ReadFull(chunk, buf); err != nil {
		return nil, fmt.Errorf("read %s chunk: %w", chunk.ChunkID, err)
	}
	return buf, nil
}

// smpl chunk: 36 byte header followed by 24 byte loop records. Loop ends are
// inclusive in the file.
func parseSampleLoop(smpl []byte) (start, end int, ok bool) {
	const headerSize, loopSize = 36, 24
	if len(smpl) < headerSize+loopSize {
		return 0, 0, false
	}
	if binary.LittleEndian.Uint32(smpl[28:32]) == 0 {
		return 0, 0, false
	}
	loop := smpl[headerSize : headerSize+loopSize]
	start = int(binary.LittleEndian.Uint32(loop[8:12]))
	end = int(binary.LittleEndian.Uint32(loop[12:16])) + 1
	return start, end, end > start
}
