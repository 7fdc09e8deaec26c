// Package sdk provides the client-side library for running the extraction
// pipelines. It supports a remote daemon over HTTP (and TCP for CPF checks)
// as well as a local embedded mode.
package sdk

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/celerix-dev/celerix-extract/internal/engine"
	"github.com/celerix-dev/celerix-extract/pkg/cpf"
	"github.com/celerix-dev/celerix-extract/pkg/schema"
)

// RemoteError is a failure reported by the daemon.
type RemoteError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("remote: %s", http.StatusText(e.Status))
}

// Unwrap exposes the pipeline sentinel matching Code, if any.
func (e *RemoteError) Unwrap() error {
	return engine.FromCode(e.Code)
}

// Client is a remote client for the extraction daemon.
// It implements the Extractor interface.
type Client struct {
	baseURL string
	http    *http.Client
	line    *LineClient
}

// Connect checks that the daemon answers on addr and returns a client for it.
// addr may omit the scheme, in which case http is assumed.
func Connect(addr string) (*Client, error) {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	c := &Client{
		baseURL: strings.TrimRight(addr, "/"),
		http:    &http.Client{Timeout: 2 * time.Minute},
	}

	probe := &http.Client{Timeout: 5 * time.Second}
	resp, err := probe.Get(c.baseURL + "/healthz")
	if err != nil {
		return nil, err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health check %s: %s", c.baseURL, resp.Status)
	}
	return c, nil
}

// UseLine routes ValidateCPF through the daemon's TCP protocol.
func (c *Client) UseLine(lc *LineClient) {
	c.line = lc
}

func (c *Client) ExtractJSON(path, outDir string) (*schema.JSONReport, error) {
	job, report, err := upload[schema.JSONReport](c, "/api/json", path)
	if err != nil {
		return nil, err
	}
	local, err := c.download(job, outDir)
	if err != nil {
		return nil, err
	}
	report.Message = strings.ReplaceAll(report.Message, report.OutputFile, local)
	report.OutputFile = local
	return report, nil
}

func (c *Client) CountCPFs(path, outDir string) (*schema.CPFReport, error) {
	job, report, err := upload[schema.CPFReport](c, "/api/cpf", path)
	if err != nil {
		return nil, err
	}
	local, err := c.download(job, outDir)
	if err != nil {
		return nil, err
	}
	report.Message = strings.ReplaceAll(report.Message, report.OutputFile, local)
	report.OutputFile = local
	return report, nil
}

// ValidateCPF sends only the digits of value, so separators never reach the
// wire and the answer matches the embedded engine.
func (c *Client) ValidateCPF(value string) (bool, error) {
	digits := cpf.Normalize(value)
	if digits == "" {
		return false, nil
	}
	if c.line != nil {
		return c.line.Validate(digits)
	}

	resp, err := c.http.Get(c.baseURL + "/api/cpf/" + digits)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, decodeError(resp)
	}

	var out struct {
		Valid bool `json:"valid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.Valid, nil
}

// Close releases the TCP connection, if one is in use.
func (c *Client) Close() error {
	if c.line != nil {
		return c.line.Close()
	}
	return nil
}

type envelope[R any] struct {
	Job    schema.Job `json:"job"`
	Report R          `json:"report"`
}

// upload posts the file at path as the multipart "file" field.
func upload[R any](c *Client, endpoint, path string) (schema.Job, *R, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return schema.Job{}, nil, &engine.InputError{Path: path, Err: ErrFileNotFound}
	}
	if err != nil {
		return schema.Job{}, nil, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return schema.Job{}, nil, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return schema.Job{}, nil, err
	}
	if err := mw.Close(); err != nil {
		return schema.Job{}, nil, err
	}

	resp, err := c.http.Post(c.baseURL+endpoint, mw.FormDataContentType(), &body)
	if err != nil {
		return schema.Job{}, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return schema.Job{}, nil, decodeError(resp)
	}

	var env envelope[R]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return schema.Job{}, nil, fmt.Errorf("decode response: %w", err)
	}
	return env.Job, &env.Report, nil
}

// download saves the job's artifact into outDir and returns its local path.
func (c *Client) download(job schema.Job, outDir string) (string, error) {
	if job.Artifact == "" {
		return "", fmt.Errorf("job %s has no artifact", job.ID)
	}

	resp, err := c.http.Get(c.baseURL + "/api/jobs/" + url.PathEscape(job.ID) + "/artifact")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}

	local := filepath.Join(outDir, filepath.Base(job.Artifact))
	err = engine.WriteAtomic(local, func(w io.Writer) error {
		_, err := io.Copy(w, resp.Body)
		return err
	})
	if err != nil {
		return "", err
	}
	return local, nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var out struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	remote := &RemoteError{Status: resp.StatusCode}
	if json.Unmarshal(body, &out) == nil {
		remote.Code = out.Error
		remote.Message = out.Message
		if remote.Message == "" {
			remote.Message = out.Error
		}
	} else {
		remote.Message = strings.TrimSpace(string(body))
	}
	return remote
}
