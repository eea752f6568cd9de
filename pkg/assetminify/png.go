package assetminify

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image/png"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/paulschiretz/pgl-modpack/pkg/perr"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// keptChunks are the chunks needed to display the image. Everything else
// (text, timestamps, color profiles, ...) is dropped.
var keptChunks = map[string]bool{
	"IHDR": true,
	"PLTE": true,
	"IDAT": true,
	"IEND": true,
	"tRNS": true,
	// APNG
	"acTL": true,
	"fcTL": true,
	"fdAT": true,
}

type pngChunk struct {
	typ  string
	data []byte
}

// minifyPNG strips ancillary chunks and re-deflates the image data at the
// highest level. Scanlines and filters stay as they are, so the decoded
// pixels are identical. The input is returned as is when nothing was gained.
func minifyPNG(data []byte) ([]byte, error) {
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %w", perr.ErrImageCodec, err)
	}

	chunks, err := readChunks(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", perr.ErrImageCodec, err)
	}

	var idat bytes.Buffer
	for _, c := range chunks {
		if c.typ == "IDAT" {
			idat.Write(c.data)
		}
	}
	recompressed, err := redeflate(idat.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", perr.ErrImageCodec, err)
	}

	out := bytes.NewBuffer(make([]byte, 0, len(data)))
	out.Write(pngSignature)
	wroteIDAT := false
	for _, c := range chunks {
		if !keptChunks[c.typ] {
			continue
		}
		if c.typ == "IDAT" {
			// IDAT chunks are consecutive; the merged stream replaces the first one.
			if wroteIDAT {
				continue
			}
			wroteIDAT = true
			writeChunk(out, "IDAT", recompressed)
			continue
		}
		writeChunk(out, c.typ, c.data)
	}

	if out.Len() >= len(data) {
		return data, nil
	}
	return out.Bytes(), nil
}

// readChunks splits a PNG file into its chunks. CRCs were already verified
// by the decoder.
func readChunks(data []byte) ([]pngChunk, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, fmt.Errorf("missing png signature")
	}
	rest := data[len(pngSignature):]

	var chunks []pngChunk
	for len(rest) > 0 {
		if len(rest) < 12 {
			return nil, fmt.Errorf("truncated chunk header")
		}
		length := binary.BigEndian.Uint32(rest[:4])
		if uint64(length)+12 > uint64(len(rest)) {
			return nil, fmt.Errorf("chunk length %d exceeds file size", length)
		}
		typ := string(rest[4:8])
		chunks = append(chunks, pngChunk{typ: typ, data: rest[8 : 8+length]})
		rest = rest[12+length:]
		if typ == "IEND" {
			break
		}
	}
	return chunks, nil
}

func writeChunk(w *bytes.Buffer, typ string, data []byte) {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(data)))
	copy(hdr[4:], typ)
	w.Write(hdr[:])
	w.Write(data)

	crc := crc32.NewIEEE()
	crc.Write(hdr[4:])
	crc.Write(data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	w.Write(sum[:])
}

// redeflate inflates a zlib stream and compresses it again at BestCompression.
func redeflate(stream []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(stream))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
