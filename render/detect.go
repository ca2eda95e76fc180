package render

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// recipeExts lists recognized recipe file extensions.
var recipeExts = []string{".yaml", ".yml"}

// sniffLen bounds how much of a file content detection reads.
const sniffLen = 512

// recipeType is the recipe matcher registered with the filetype library.
// filetype ships binary signatures only, so text formats need their own.
var recipeType = filetype.NewType("yaml", "application/yaml")

func init() {
	filetype.AddMatcher(recipeType, func(buf []byte) bool {
		return bytes.Contains(buf, []byte("version:"))
	})
}

type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

func (e srcEncoding) String() string {
	switch e {
	case encUnknown:
		return "unknown"
	case encUTF8:
		return "utf-8"
	case encUTF16BigEndian:
		return "utf-16be"
	case encUTF16LittleEndian:
		return "utf-16le"
	case encUTF32BigEndian:
		return "utf-32be"
	case encUTF32LittleEndian:
		return "utf-32le"
	default:
		return fmt.Sprintf("srcEncoding(%d)", int(e))
	}
}

func isUTF8BOM3(buf []byte) bool {
	return len(buf) >= 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFF && buf[1] == 0xFE
}

func isUTF32BigEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

// detectUTF sniffs the byte order mark. UTF-32 marks are checked first since
// the UTF-32LE mark starts with the UTF-16LE one. Absence of a mark reports
// encUnknown, the content is then assumed to be UTF-8.
func detectUTF(buf []byte) srcEncoding {
	switch {
	case isUTF32BigEndianBOM4(buf):
		return encUTF32BigEndian
	case isUTF32LittleEndianBOM4(buf):
		return encUTF32LittleEndian
	case isUTF8BOM3(buf):
		return encUTF8
	case isUTF16BigEndianBOM2(buf):
		return encUTF16BigEndian
	case isUTF16LittleEndianBOM2(buf):
		return encUTF16LittleEndian
	default:
		return encUnknown
	}
}

// selectReader wraps r with a decoder converting detected encoding to UTF-8
// and dropping the byte order mark. Content without a mark passes through
// untouched.
func selectReader(r io.Reader, enc srcEncoding) io.Reader {
	switch enc {
	case encUnknown:
		return r
	case encUTF8:
		return unicode.UTF8BOM.NewDecoder().Reader(r)
	case encUTF16BigEndian:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder().Reader(r)
	case encUTF16LittleEndian:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Reader(r)
	case encUTF32BigEndian:
		return utf32.UTF32(utf32.BigEndian, utf32.UseBOM).NewDecoder().Reader(r)
	case encUTF32LittleEndian:
		return utf32.UTF32(utf32.LittleEndian, utf32.UseBOM).NewDecoder().Reader(r)
	default:
		// this should never happen
		panic("unsupported source encoding")
	}
}

// hasRecipeExt reports whether name carries a recipe extension, ignoring
// case.
func hasRecipeExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range recipeExts {
		if ext == e {
			return true
		}
	}
	return false
}

// sniff reads the head of the content for detection, tolerating short reads.
func sniff(r io.Reader) ([]byte, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return buf[:n], nil
}

// isBundleFile checks if file is a recipe bundle, by extension first and
// then by content. Wrong extension or content reports false, inability to
// read the file is an error.
func isBundleFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf, err := sniff(f)
	if err != nil {
		return false, err
	}
	return filetype.Is(buf, "zip"), nil
}

// isRecipeFile checks if file is a stylesheet recipe and detects its
// encoding. Wrong extension or content reports false, inability to read the
// file is an error.
func isRecipeFile(path string) (bool, srcEncoding, error) {
	if !hasRecipeExt(path) {
		return false, encUnknown, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, encUnknown, err
	}
	defer f.Close()

	return isRecipeContent(f)
}

// isRecipeInBundle is isRecipeFile for bundle entries.
func isRecipeInBundle(f *zip.File) (bool, srcEncoding, error) {
	if !hasRecipeExt(f.FileHeader.Name) {
		return false, encUnknown, nil
	}

	r, err := f.Open()
	if err != nil {
		return false, encUnknown, err
	}
	defer r.Close()

	return isRecipeContent(r)
}

// isRecipeContent sniffs the head of the content: detects the byte order
// mark and looks for the schema marker in the decoded text, so UTF-16/32
// recipes are recognized too.
func isRecipeContent(r io.Reader) (bool, srcEncoding, error) {
	buf, err := sniff(r)
	if err != nil {
		return false, encUnknown, err
	}

	enc := detectUTF(buf)

	head, err := io.ReadAll(selectReader(bytes.NewReader(buf), enc))
	if err != nil {
		return false, enc, nil
	}
	return filetype.IsType(head, recipeType), enc, nil
}
