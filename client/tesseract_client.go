package client

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractClient runs Tesseract over page images. Documents are in
// Spanish, so the default language set is "spa"; more languages can be
// joined with "+".
type TesseractClient struct {
	dataPath  string
	languages []string
}

func NewTesseractClient(dataPath, languages string) *TesseractClient {
	langs := strings.Split(languages, "+")
	if languages == "" {
		langs = []string{"spa"}
	}
	return &TesseractClient{
		dataPath:  dataPath,
		languages: langs,
	}
}

// ExtractTextFromImage runs OCR over an image file on disk.
func (tc *TesseractClient) ExtractTextFromImage(imagePath string) (string, error) {
	client, err := tc.newClient()
	if err != nil {
		return "", err
	}
	defer client.Close()

	if err := client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	return text, nil
}

// ExtractTextFromBytes runs OCR over an in-memory image.
func (tc *TesseractClient) ExtractTextFromBytes(img []byte) (string, error) {
	client, err := tc.newClient()
	if err != nil {
		return "", err
	}
	defer client.Close()

	if err := client.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	return text, nil
}

// ExtractBlockText runs OCR in single-block segmentation, which reads
// the dense label/value layout of SAT constancias better than the
// automatic mode.
func (tc *TesseractClient) ExtractBlockText(img []byte) (string, error) {
	client, err := tc.newClient()
	if err != nil {
		return "", err
	}
	defer client.Close()

	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("failed to set page segmentation: %w", err)
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	return text, nil
}

// ExtractTextWithLanguages runs OCR with a one-off language set, e.g. a
// per-request override. Empty languages fall back to the configured set.
func (tc *TesseractClient) ExtractTextWithLanguages(img []byte, languages string) (string, error) {
	if strings.TrimSpace(languages) == "" {
		return tc.ExtractTextFromBytes(img)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if tc.dataPath != "" {
		client.SetTessdataPrefix(tc.dataPath)
	}
	if err := client.SetLanguage(strings.Split(languages, "+")...); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	return text, nil
}

// Close releases the client. Each extraction runs on its own gosseract
// client, so there is nothing long-lived to tear down here.
func (tc *TesseractClient) Close() error {
	return nil
}

func (tc *TesseractClient) newClient() (*gosseract.Client, error) {
	client := gosseract.NewClient()

	if tc.dataPath != "" {
		client.SetTessdataPrefix(tc.dataPath)
	}
	if err := client.SetLanguage(tc.languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	return client, nil
}
