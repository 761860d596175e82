package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	sdk "github.com/sashabaranov/go-openai"

	"audiosketch/internal/logging"
	"audiosketch/internal/services"
)

// ImageRequest describes one image generation call.
type ImageRequest struct {
	Model   string
	Prompt  string
	Size    string
	Quality string
}

// GeneratedImage is the provider's answer: a URL to fetch, or inline bytes.
type GeneratedImage struct {
	URL           string
	Data          []byte
	RevisedPrompt string
}

// GenerateImage requests a single image. A response without image data is a
// provider error.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (GeneratedImage, error) {
	apiReq := sdk.ImageRequest{
		Prompt:         req.Prompt,
		Model:          req.Model,
		N:              1,
		Size:           defaultString(req.Size, sdk.CreateImageSize1024x1024),
		Quality:        defaultString(req.Quality, sdk.CreateImageQualityStandard),
		ResponseFormat: sdk.CreateImageResponseFormatURL,
	}
	started := time.Now()
	resp, err := c.api.CreateImage(ctx, apiReq)
	observe("image", req.Model, time.Since(started).Seconds(), err)
	if err != nil {
		return GeneratedImage{}, providerError("image", err)
	}
	if len(resp.Data) == 0 {
		return GeneratedImage{}, services.Wrap(services.ErrProvider, "openai", "image", "response has no image data", nil)
	}
	item := resp.Data[0]
	out := GeneratedImage{URL: strings.TrimSpace(item.URL), RevisedPrompt: strings.TrimSpace(item.RevisedPrompt)}
	if out.URL == "" && item.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return GeneratedImage{}, services.Wrap(services.ErrProvider, "openai", "image", "decode inline image", err)
		}
		out.Data = data
	}
	if out.URL == "" && len(out.Data) == 0 {
		return GeneratedImage{}, services.Wrap(services.ErrProvider, "openai", "image", "response has no url or image bytes", nil)
	}
	c.logger.Debug("image generated",
		logging.String("model", req.Model),
		logging.Bool("revised", out.RevisedPrompt != ""),
		logging.Duration("elapsed", time.Since(started)),
	)
	return out, nil
}

// Download writes the image to dst through a temporary file so a failed
// transfer never leaves a partial png in the working set.
func (c *Client) Download(ctx context.Context, img GeneratedImage, dst string) error {
	tmp := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".part")
	if err := c.writeImage(ctx, img, tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize image: %w", err)
	}
	return nil
}

func (c *Client) writeImage(ctx context.Context, img GeneratedImage, path string) error {
	if len(img.Data) > 0 {
		if err := os.WriteFile(path, img.Data, 0o644); err != nil {
			return fmt.Errorf("write image: %w", err)
		}
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, img.URL, nil)
	if err != nil {
		return services.Wrap(services.ErrProvider, "openai", "download", "build request", err)
	}
	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observe("download", "", time.Since(started).Seconds(), err)
		return services.Wrap(services.ErrProvider, "openai", "download", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("http %d", resp.StatusCode)
		observe("download", "", time.Since(started).Seconds(), err)
		return services.Wrap(services.ErrProvider, "openai", "download", err.Error(), nil)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	defer file.Close()
	if _, err := io.Copy(file, resp.Body); err != nil {
		observe("download", "", time.Since(started).Seconds(), err)
		return services.Wrap(services.ErrProvider, "openai", "download", "read body", err)
	}
	observe("download", "", time.Since(started).Seconds(), nil)
	return file.Close()
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
