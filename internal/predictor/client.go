package predictor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/Skufu/risklens/internal/apiclient"
	"github.com/Skufu/risklens/internal/form"
)

const maxReportBytes = 32 << 20

// Report is a binary document returned by the backend.
type Report struct {
	Data        []byte
	ContentType string
}

// Client talks to the prediction backend with multipart form bodies, the way
// the browser form would.
type Client struct {
	api         *apiclient.Client
	predictPath string
	reportPath  string
}

func New(api *apiclient.Client, predictPath, reportPath string) *Client {
	return &Client{api: api, predictPath: predictPath, reportPath: reportPath}
}

func (c *Client) Predict(ctx context.Context, st form.State) (*Response, error) {
	body, contentType, err := st.Encode()
	if err != nil {
		return nil, err
	}
	resp, err := c.api.Do(ctx, http.MethodPost, c.predictPath, bytes.NewReader(body), contentType)
	if err != nil {
		return nil, rejectedFromStatus(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read prediction: %w", err)
	}
	out, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &RejectedError{Message: out.Error}
	}
	return out, nil
}

// Report fetches the generated document. A JSON answer is never a document:
// it is reported as a rejection carrying the backend's error text.
func (c *Client) Report(ctx context.Context, st form.State) (*Report, error) {
	body, contentType, err := st.Encode()
	if err != nil {
		return nil, err
	}
	resp, err := c.api.Do(ctx, http.MethodPost, c.reportPath, bytes.NewReader(body), contentType)
	if err != nil {
		return nil, rejectedFromStatus(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReportBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	if len(data) > maxReportBytes {
		return nil, fmt.Errorf("report exceeds %d bytes", maxReportBytes)
	}
	ct := resp.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		return nil, &RejectedError{Message: gjson.GetBytes(data, "error").String()}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty report")
	}
	if ct == "" {
		ct = "application/pdf"
	}
	return &Report{Data: data, ContentType: ct}, nil
}

// rejectedFromStatus keeps the backend's {"success":false,"error":...} message
// when a non-2xx status carries one.
func rejectedFromStatus(err error) error {
	var se *apiclient.StatusError
	if !errors.As(err, &se) {
		return err
	}
	msg := gjson.Get(se.Body, "error")
	if msg.Type != gjson.String || msg.Str == "" {
		return err
	}
	return fmt.Errorf("%w: %w", &RejectedError{Message: msg.Str}, err)
}
