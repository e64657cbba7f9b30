package catalog

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/go-faster/errors"
)

// FileFormat represents the on-disk catalog formats
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatJSON               // JSON array of products
	FormatMsgpack            // msgpack snapshot written by SaveSnapshot
)

// FormatInfo contains metadata about a catalog file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64 // Minimum expected file size in bytes
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatJSON: {
		Format:      FormatJSON,
		Description: "JSON Product Catalog",
		Extensions:  []string{".json"},
		MinSize:     2, // "[]"
	},
	FormatMsgpack: {
		Format:      FormatMsgpack,
		Description: "Msgpack Catalog Snapshot",
		Extensions:  []string{".msgpack", ".mpk"},
		MinSize:     1, // at least the map header
	},
}

func (f FileFormat) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Description
	}
	return "unknown"
}

// DetectFileFormat detects the format of a catalog file from its extension
func DetectFileFormat(filename string) (FileFormat, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for format, info := range supportedFormats {
		for _, e := range info.Extensions {
			if e == ext {
				return format, nil
			}
		}
	}
	return FormatUnknown, errors.Wrapf(ErrUnsupportedFormat, "extension %q of %s", ext, filename)
}

// ValidateFileFormat checks if a file matches the expected format
func ValidateFileFormat(filename string, expectedFormat FileFormat) error {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return errors.Wrapf(err, "stat %s", filename)
	}

	formatInfo, exists := supportedFormats[expectedFormat]
	if !exists {
		return errors.Wrapf(ErrUnsupportedFormat, "format %d", expectedFormat)
	}

	if fileInfo.Size() < formatInfo.MinSize {
		return errors.Errorf("file %s is too small (%d bytes) for format %s (minimum: %d bytes)",
			filename, fileInfo.Size(), formatInfo.Description, formatInfo.MinSize)
	}

	first, err := firstByte(filename)
	if err != nil {
		return err
	}

	switch expectedFormat {
	case FormatJSON:
		if first != '[' {
			return errors.Errorf("file %s does not start with a JSON array", filename)
		}
	case FormatMsgpack:
		if !isMsgpackMap(first) {
			return errors.Errorf("file %s does not start with a msgpack map (0x%02x)", filename, first)
		}
	}

	log.Debugf("Catalog file %s validated as %s", filename, formatInfo.Description)
	return nil
}

// firstByte returns the first non-whitespace byte of a file
func firstByte(filename string) (byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, errors.Wrapf(err, "open %s", filename)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return 0, errors.Wrapf(err, "read header of %s", filename)
		}
		if b < 0x80 && unicode.IsSpace(rune(b)) {
			continue
		}
		return b, nil
	}
}

// isMsgpackMap reports whether b is a fixmap, map16 or map32 header byte
func isMsgpackMap(b byte) bool {
	return b&0xf0 == 0x80 || b == 0xde || b == 0xdf
}
