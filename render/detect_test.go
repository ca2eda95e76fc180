package render

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/unicode"
)

var recipeContent = []byte(`version: 1
metadata:
  name: detection sample
rules:
  - selector:
      element: p
    declarations:
      color: blue
`)

func utf16leBytes(t *testing.T, s string) []byte {
	t.Helper()
	data, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("Failed to encode UTF-16LE fixture: %v", err)
	}
	return data
}

func TestIsBundleFile(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("non-zip extension", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test.yaml")
		if err := os.WriteFile(filePath, recipeContent, 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		got, err := isBundleFile(filePath)
		if err != nil {
			t.Errorf("isBundleFile() error = %v", err)
		}
		if got {
			t.Errorf("isBundleFile() = %v, want false", got)
		}
	})

	t.Run("zip extension but invalid content", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test.zip")
		if err := os.WriteFile(filePath, []byte("not a real zip file"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		got, err := isBundleFile(filePath)
		if err != nil {
			t.Errorf("isBundleFile() error = %v", err)
		}
		if got {
			t.Errorf("isBundleFile() = %v, want false", got)
		}
	})

	t.Run("valid bundle", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test2.zip")
		zipFile, err := os.Create(filePath)
		if err != nil {
			t.Fatalf("Failed to create zip file: %v", err)
		}
		w := zip.NewWriter(zipFile)
		f, err := w.Create("recipes/site.yaml")
		if err != nil {
			t.Fatalf("Failed to create file in zip: %v", err)
		}
		f.Write(recipeContent)
		w.Close()
		zipFile.Close()

		got, err := isBundleFile(filePath)
		if err != nil {
			t.Errorf("isBundleFile() error = %v", err)
		}
		if !got {
			t.Errorf("isBundleFile() = %v, want true", got)
		}
	})

	t.Run("uppercase extension", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test3.ZIP")
		zipFile, err := os.Create(filePath)
		if err != nil {
			t.Fatalf("Failed to create zip file: %v", err)
		}
		w := zip.NewWriter(zipFile)
		if _, err := w.Create("site.yaml"); err != nil {
			t.Fatalf("Failed to create file in zip: %v", err)
		}
		w.Close()
		zipFile.Close()

		got, err := isBundleFile(filePath)
		if err != nil {
			t.Errorf("isBundleFile() error = %v", err)
		}
		if !got {
			t.Errorf("isBundleFile() = %v, want true", got)
		}
	})
}

func TestIsBundleFile_NonExistent(t *testing.T) {
	_, err := isBundleFile("/nonexistent/file.zip")
	if err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

func TestDetectUTF(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want srcEncoding
	}{
		{
			name: "UTF-8 BOM",
			buf:  []byte{0xEF, 0xBB, 0xBF, 0x76},
			want: encUTF8,
		},
		{
			name: "UTF-16 Big Endian BOM",
			buf:  []byte{0xFE, 0xFF, 0x00, 0x76},
			want: encUTF16BigEndian,
		},
		{
			name: "UTF-16 Little Endian BOM",
			buf:  []byte{0xFF, 0xFE, 0x76, 0x00}, // third byte differs from UTF-32LE
			want: encUTF16LittleEndian,
		},
		{
			name: "UTF-32 Big Endian BOM",
			buf:  []byte{0x00, 0x00, 0xFE, 0xFF},
			want: encUTF32BigEndian,
		},
		{
			name: "UTF-32 Little Endian BOM",
			buf:  []byte{0xFF, 0xFE, 0x00, 0x00},
			want: encUTF32LittleEndian,
		},
		{
			name: "no BOM",
			buf:  []byte("version: 1"),
			want: encUnknown,
		},
		{
			name: "empty",
			buf:  nil,
			want: encUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectUTF(tt.buf)
			if got != tt.want {
				t.Errorf("detectUTF() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBOMDetectionFunctions(t *testing.T) {
	t.Run("isUTF8BOM3", func(t *testing.T) {
		if !isUTF8BOM3([]byte{0xEF, 0xBB, 0xBF}) {
			t.Error("Expected true for UTF-8 BOM")
		}
		if isUTF8BOM3([]byte{0x00, 0x00, 0x00}) {
			t.Error("Expected false for non-BOM")
		}
	})

	t.Run("isUTF16BigEndianBOM2", func(t *testing.T) {
		if !isUTF16BigEndianBOM2([]byte{0xFE, 0xFF}) {
			t.Error("Expected true for UTF-16 BE BOM")
		}
		if isUTF16BigEndianBOM2([]byte{0xFF, 0xFE}) {
			t.Error("Expected false for UTF-16 LE BOM")
		}
	})

	t.Run("isUTF16LittleEndianBOM2", func(t *testing.T) {
		if !isUTF16LittleEndianBOM2([]byte{0xFF, 0xFE}) {
			t.Error("Expected true for UTF-16 LE BOM")
		}
		if isUTF16LittleEndianBOM2([]byte{0xFE, 0xFF}) {
			t.Error("Expected false for UTF-16 BE BOM")
		}
	})

	t.Run("isUTF32BigEndianBOM4", func(t *testing.T) {
		if !isUTF32BigEndianBOM4([]byte{0x00, 0x00, 0xFE, 0xFF}) {
			t.Error("Expected true for UTF-32 BE BOM")
		}
		if isUTF32BigEndianBOM4([]byte{0xFF, 0xFE, 0x00, 0x00}) {
			t.Error("Expected false for UTF-32 LE BOM")
		}
	})

	t.Run("isUTF32LittleEndianBOM4", func(t *testing.T) {
		if !isUTF32LittleEndianBOM4([]byte{0xFF, 0xFE, 0x00, 0x00}) {
			t.Error("Expected true for UTF-32 LE BOM")
		}
		if isUTF32LittleEndianBOM4([]byte{0x00, 0x00, 0xFE, 0xFF}) {
			t.Error("Expected false for UTF-32 BE BOM")
		}
	})
}

func TestIsRecipeFile(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name       string
		filename   string
		content    []byte
		wantRecipe bool
		wantEnc    srcEncoding
	}{
		{
			name:       "valid recipe",
			filename:   "test.yaml",
			content:    recipeContent,
			wantRecipe: true,
			wantEnc:    encUnknown,
		},
		{
			name:       "yml extension",
			filename:   "test.yml",
			content:    recipeContent,
			wantRecipe: true,
			wantEnc:    encUnknown,
		},
		{
			name:       "uppercase extension",
			filename:   "test.YAML",
			content:    recipeContent,
			wantRecipe: true,
			wantEnc:    encUnknown,
		},
		{
			name:       "recipe with UTF-8 BOM",
			filename:   "test-utf8.yaml",
			content:    append([]byte{0xEF, 0xBB, 0xBF}, recipeContent...),
			wantRecipe: true,
			wantEnc:    encUTF8,
		},
		{
			name:       "non-recipe extension",
			filename:   "test.txt",
			content:    recipeContent,
			wantRecipe: false,
			wantEnc:    encUnknown,
		},
		{
			name:       "recipe extension but unversioned content",
			filename:   "plain.yaml",
			content:    []byte("name: just some yaml\n"),
			wantRecipe: false,
			wantEnc:    encUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filePath := filepath.Join(tmpDir, tt.filename)
			if err := os.WriteFile(filePath, tt.content, 0644); err != nil {
				t.Fatalf("Failed to create test file: %v", err)
			}

			gotRecipe, gotEnc, err := isRecipeFile(filePath)
			if err != nil {
				t.Errorf("isRecipeFile() error = %v", err)
				return
			}
			if gotRecipe != tt.wantRecipe {
				t.Errorf("isRecipeFile() recipe = %v, want %v", gotRecipe, tt.wantRecipe)
			}
			if gotEnc != tt.wantEnc {
				t.Errorf("isRecipeFile() encoding = %v, want %v", gotEnc, tt.wantEnc)
			}
		})
	}

	// The marker lookup must run on decoded text or UTF-16 recipes would
	// never be recognized.
	t.Run("recipe in UTF-16LE", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test-utf16le.yaml")
		if err := os.WriteFile(filePath, utf16leBytes(t, string(recipeContent)), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		gotRecipe, gotEnc, err := isRecipeFile(filePath)
		if err != nil {
			t.Errorf("isRecipeFile() error = %v", err)
			return
		}
		if !gotRecipe {
			t.Error("isRecipeFile() recipe = false, want true")
		}
		if gotEnc != encUTF16LittleEndian {
			t.Errorf("isRecipeFile() encoding = %v, want %v", gotEnc, encUTF16LittleEndian)
		}
	})
}

func TestIsRecipeFile_NonExistent(t *testing.T) {
	_, _, err := isRecipeFile("/nonexistent/file.yaml")
	if err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

func TestIsRecipeInBundle(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "test.zip")

	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}

	w := zip.NewWriter(zipFile)
	entries := []struct {
		name string
		data []byte
	}{
		{"recipes/site.yaml", recipeContent},
		{"notes.txt", recipeContent},
		{"recipes/bom.yaml", append([]byte{0xEF, 0xBB, 0xBF}, recipeContent...)},
		{"recipes/plain.yaml", []byte("name: just some yaml\n")},
	}
	for _, e := range entries {
		f, err := w.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Store})
		if err != nil {
			t.Fatalf("Failed to create %s in zip: %v", e.name, err)
		}
		if _, err := f.Write(e.data); err != nil {
			t.Fatalf("Failed to write %s to zip: %v", e.name, err)
		}
	}
	w.Close()
	zipFile.Close()

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("Failed to open zip: %v", err)
	}
	defer r.Close()

	tests := []struct {
		name       string
		fileIdx    int
		wantRecipe bool
		wantEnc    srcEncoding
	}{
		{
			name:       "recipe in bundle",
			fileIdx:    0,
			wantRecipe: true,
			wantEnc:    encUnknown,
		},
		{
			name:       "non-recipe file in bundle",
			fileIdx:    1,
			wantRecipe: false,
			wantEnc:    encUnknown,
		},
		{
			name:       "recipe with BOM in bundle",
			fileIdx:    2,
			wantRecipe: true,
			wantEnc:    encUTF8,
		},
		{
			name:       "unversioned yaml in bundle",
			fileIdx:    3,
			wantRecipe: false,
			wantEnc:    encUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotRecipe, gotEnc, err := isRecipeInBundle(r.File[tt.fileIdx])
			if err != nil {
				t.Errorf("isRecipeInBundle() error = %v", err)
				return
			}
			if gotRecipe != tt.wantRecipe {
				t.Errorf("isRecipeInBundle() recipe = %v, want %v", gotRecipe, tt.wantRecipe)
			}
			if gotEnc != tt.wantEnc {
				t.Errorf("isRecipeInBundle() encoding = %v, want %v", gotEnc, tt.wantEnc)
			}
		})
	}
}

func TestSelectReader(t *testing.T) {
	encodings := []struct {
		name string
		enc  srcEncoding
	}{
		{"unknown", encUnknown},
		{"utf-8", encUTF8},
		{"utf-16be", encUTF16BigEndian},
		{"utf-16le", encUTF16LittleEndian},
		{"utf-32be", encUTF32BigEndian},
		{"utf-32le", encUTF32LittleEndian},
	}

	for _, tt := range encodings {
		t.Run(tt.name, func(t *testing.T) {
			if selectReader(bytes.NewReader([]byte("test data")), tt.enc) == nil {
				t.Error("selectReader() returned nil")
			}
		})
	}

	t.Run("decodes UTF-16LE dropping BOM", func(t *testing.T) {
		data := utf16leBytes(t, "version: 1")
		got, err := io.ReadAll(selectReader(bytes.NewReader(data), encUTF16LittleEndian))
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		if string(got) != "version: 1" {
			t.Errorf("decoded %q, want %q", got, "version: 1")
		}
	})
}

func TestSelectReader_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for invalid encoding, but didn't panic")
		}
	}()

	selectReader(bytes.NewReader([]byte("test")), srcEncoding(999))
}

func TestSrcEncoding_String(t *testing.T) {
	tests := map[srcEncoding]string{
		encUnknown:           "unknown",
		encUTF8:              "utf-8",
		encUTF16BigEndian:    "utf-16be",
		encUTF16LittleEndian: "utf-16le",
		encUTF32BigEndian:    "utf-32be",
		encUTF32LittleEndian: "utf-32le",
		srcEncoding(99):      "srcEncoding(99)",
	}

	for enc, want := range tests {
		if got := enc.String(); got != want {
			t.Errorf("srcEncoding(%d).String() = %q, want %q", int(enc), got, want)
		}
	}
}
