package files

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// MaybeDecompress expands a .gz file next to itself and returns the path of
// the expanded copy. Any other path is returned unchanged.
func MaybeDecompress(path string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), bcpstage.GzipExtension) {
		return path, nil
	}
	target := path[:len(path)-len(bcpstage.GzipExtension)]

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer src.Close()

	zr, err := gzip.NewReader(src)
	if err != nil {
		return "", fmt.Errorf("failed to read gzip header of %s: %w", path, err)
	}
	defer zr.Close()

	if err := writeFile(target, zr); err != nil {
		return "", fmt.Errorf("failed to decompress %s: %w", path, err)
	}
	return target, nil
}

// Compress writes path+".gz" and returns its path. The source is left in place.
func Compress(path string) (string, error) {
	target := path + bcpstage.GzipExtension

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer dst.Close()

	zw := gzip.NewWriter(dst)
	if _, err := io.Copy(zw, src); err != nil {
		zw.Close()
		return "", fmt.Errorf("failed to compress %s: %w", path, err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish %s: %w", target, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", target, err)
	}
	return target, nil
}

func writeFile(path string, r io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
