package client

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
)

type SummarizeResult struct {
	// Message and Reason are set when the document is rejected as
	// non-technical; Summary and the artifacts are set otherwise.
	Message string `json:"message"`
	Reason  string `json:"reason"`

	Summary     string  `json:"summary"`
	ImageBase64 *string `json:"imageBase64"`
	VideoBase64 *string `json:"videoBase64"`
}

func (r *SummarizeResult) Rejected() bool {
	return r.Message != ""
}

// SummarizePDF validates, gates on trials for anonymous users, uploads and
// parses the result. The trial counter only decrements after a successful
// response so a server error never costs a trial.
func (c *Client) SummarizePDF(ctx context.Context, filename string, data []byte) (*SummarizeResult, error) {
	if err := ValidatePDF(filename, "application/pdf", int64(len(data))); err != nil {
		return nil, err
	}
	anonymous := !c.LoggedIn()
	if anonymous && c.FreeTrialsLeft() <= 0 {
		return nil, ErrTrialsExhausted
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filepath.Base(filename)+`"`)
	header.Set("Content-Type", "application/pdf")
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	var result SummarizeResult
	if err := c.doJSON(ctx, http.MethodPost, "/summarize/pdf", bytes.NewReader(body.Bytes()), writer.FormDataContentType(), &result); err != nil {
		return nil, err
	}
	if anonymous {
		c.consumeTrial()
	}
	return &result, nil
}
