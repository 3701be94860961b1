package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"scholaria/backend/internal/text"
)

// ErrNoExtractableText is returned when the extraction service parses a file
// but finds no usable content, e.g. a scanned PDF with no text layer.
var ErrNoExtractableText = errors.New("no extractable text in document")

// Client talks to the document extraction sidecar, which converts uploaded
// files into a flat list of text elements with section and page metadata.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

type extractResponse struct {
	Elements []struct {
		Text    string `json:"text"`
		Section string `json:"section"`
		Page    int    `json:"page"`
	} `json:"elements"`
}

// Extract uploads the file at path and returns its text elements in
// document order.
func (c *Client) Extract(ctx context.Context, path string) ([]text.Element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/extract", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		return nil, ErrNoExtractableText
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("extractor returned %d: %s", resp.StatusCode, body)
	}

	var result extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode extractor response: %w", err)
	}

	elements := make([]text.Element, 0, len(result.Elements))
	for _, e := range result.Elements {
		if e.Text == "" {
			continue
		}
		elements = append(elements, text.Element{Text: e.Text, Section: e.Section, Page: e.Page})
	}
	if len(elements) == 0 {
		return nil, ErrNoExtractableText
	}
	return elements, nil
}
