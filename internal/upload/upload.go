// Package upload posts binary payloads to pre-signed multipart form targets.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/juju/errors"

	"github.com/lherron/pressmigrate/internal/domain"
)

// maxErrorBody bounds how much of a failed response is kept for diagnostics
const maxErrorBody = 2048

// Client uploads files using destination-issued upload tickets
type Client struct {
	http *http.Client
}

// NewClient creates an upload client. A zero timeout means no timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}}
}

// NewClientWithHTTP wraps an existing http.Client
func NewClientWithHTTP(c *http.Client) *Client {
	return &Client{http: c}
}

// StatusError is returned when the upload target rejects the request
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upload rejected: status %d: %s", e.StatusCode, e.Body)
}

// Upload sends the ticket fields, in order, followed by the file part
func (c *Client) Upload(ctx context.Context, ticket domain.UploadTicket, fileName string, data []byte) error {
	if ticket.URL == "" {
		return errors.NewNotValid(nil, "upload ticket has no target URL")
	}

	body, contentType, err := buildForm(ticket.Fields, fileName, data)
	if err != nil {
		return errors.Annotate(err, "building upload form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ticket.URL, body)
	if err != nil {
		return errors.Annotate(err, "creating upload request")
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Annotatef(err, "uploading %s", fileName)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.Trace(&StatusError{StatusCode: resp.StatusCode, Body: string(respBody)})
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func buildForm(fields []domain.FormField, fileName string, data []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", err
		}
	}

	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}
