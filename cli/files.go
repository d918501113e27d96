package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/haycash/toolbox/config"
)

// fileHeaders turns local paths into multipart file headers by round
// tripping them through an in-memory form, so the CLI feeds the same
// service entry points as the HTTP surface.
func fileHeaders(paths []string) ([]*multipart.FileHeader, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		fw, err := mw.CreateFormFile("files[]", filepath.Base(path))
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	form, err := multipart.NewReader(&buf, mw.Boundary()).ReadForm(256 << 20)
	if err != nil {
		return nil, err
	}
	return form.File["files[]"], nil
}

// ensureTessdata exports the tessdata path for gosseract before any OCR
// client is created.
func ensureTessdata(cfg *config.Config) {
	os.Setenv("TESSDATA_PREFIX", cfg.OCR.TesseractDataPath)
}

// writeOutput writes data to the requested path, falling back to the
// generated filename in the working directory.
func writeOutput(path, defaultName string, data []byte) error {
	if path == "" {
		path = defaultName
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
