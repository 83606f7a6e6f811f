package graphio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

func compressData(inData []byte, out io.Writer) error {
	encoder, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	if _, err = io.Copy(encoder, bytes.NewReader(inData)); err != nil {
		encoder.Close()
		return err
	}
	return encoder.Close()
}

func decompressData(in io.Reader) ([]byte, error) {
	d, err := zstd.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer d.Close()

	var out bytes.Buffer
	if _, err = io.Copy(&out, d); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
