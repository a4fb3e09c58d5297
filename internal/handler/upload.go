package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"syscall"
	"time"

	"github.com/meiziya0402-source/PPT/internal/models"
	"github.com/meiziya0402-source/PPT/internal/render"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	// ErrUploadTooLarge - изображение больше UPLOAD_MAX_BYTES
	ErrUploadTooLarge = errors.New("upload too large")
	// ErrBadUpload - в запросе нет изображения или его не удалось получить
	ErrBadUpload = errors.New("bad upload")
)

// BackgroundURLRequest - загрузка фона по ссылке.
type BackgroundURLRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// BackgroundResponse описывает принятый фон.
type BackgroundResponse struct {
	MimeType string `json:"mimeType"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Hash     string `json:"hash"`
	Bytes    int    `json:"bytes"`
}

// ErrBlockedAddress - ссылка ведет на адрес внутренней сети.
var ErrBlockedAddress = errors.New("address is not allowed")

const maxFetchRedirects = 3

// ImageFetcher скачивает удаленные изображения с ограничением размера.
// По умолчанию соединения с loopback, частными и link-local адресами запрещены;
// проверка идет при каждом подключении, поэтому редиректы и DNS не обходят ее.
type ImageFetcher struct {
	client   *http.Client
	maxBytes int64
	logger   *zap.Logger
}

// NewImageFetcher создает загрузчик с таймаутом. allowPrivate разрешает адреса внутренней сети.
func NewImageFetcher(timeout time.Duration, maxBytes int64, allowPrivate bool, logger *zap.Logger) *ImageFetcher {
	dialer := &net.Dialer{Timeout: timeout}
	if !allowPrivate {
		dialer.Control = rejectPrivateAddress
	}
	transport := &http.Transport{
		Proxy:                 nil,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
	return &ImageFetcher{
		client: &http.Client{
			Timeout:       timeout,
			Transport:     transport,
			CheckRedirect: checkRedirect,
		},
		maxBytes: maxBytes,
		logger:   logger.Named("ImageFetcher"),
	}
}

func rejectPrivateAddress(network, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	addr := ap.Addr().Unmap()
	if !addr.IsGlobalUnicast() || addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast() {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, addr)
	}
	return nil
}

func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxFetchRedirects {
		return fmt.Errorf("stopped after %d redirects", maxFetchRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("redirect to unsupported scheme %q", req.URL.Scheme)
	}
	return nil
}

// Fetch скачивает изображение по http(s) ссылке.
// Причина сбоя пишется в лог, клиент получает только ErrBadUpload без деталей удаленной стороны.
func (f *ImageFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: unsupported url", ErrBadUpload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported url", ErrBadUpload)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("Remote image fetch failed", zap.String("host", u.Host), zap.Error(err))
		return nil, fmt.Errorf("%w: remote image could not be fetched", ErrBadUpload)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("Remote image fetch failed", zap.String("host", u.Host), zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: remote image could not be fetched", ErrBadUpload)
	}
	return readLimited(resp.Body, f.maxBytes)
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadUpload, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrUploadTooLarge, maxBytes)
	}
	return data, nil
}

// readUpload достает байты изображения: multipart поле image, JSON {url} или сырое тело.
func (h *DeckHandler) readUpload(c *gin.Context) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.UploadMaxBytes+1<<20)
		file, err := c.FormFile("image")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, fmt.Errorf("%w: more than %d bytes", ErrUploadTooLarge, h.opts.UploadMaxBytes)
			}
			return nil, fmt.Errorf("%w: form field image: %v", ErrBadUpload, err)
		}
		if file.Size > h.opts.UploadMaxBytes {
			return nil, fmt.Errorf("%w: more than %d bytes", ErrUploadTooLarge, h.opts.UploadMaxBytes)
		}
		f, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadUpload, err)
		}
		defer f.Close()
		return readLimited(f, h.opts.UploadMaxBytes)

	case "application/json":
		var req BackgroundURLRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadUpload, err)
		}
		if h.fetcher == nil {
			return nil, fmt.Errorf("%w: remote images are disabled", ErrBadUpload)
		}
		return h.fetcher.Fetch(c.Request.Context(), req.URL)

	default:
		return readLimited(c.Request.Body, h.opts.UploadMaxBytes)
	}
}

func (h *DeckHandler) uploadBackground(c *gin.Context) {
	d, ok := h.deck(c)
	if !ok {
		return
	}
	data, err := h.readUpload(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	bg, err := render.DecodeBackgroundLimit(data, h.opts.MaxImagePixels)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	d.SetBackgroundImage(bg)
	h.logger.Info("Background uploaded", zap.String("sessionID", c.Param("sessionId")), zap.String("mime", bg.MimeType), zap.Int("bytes", len(data)))

	c.JSON(http.StatusOK, backgroundResponse(bg))
}

func backgroundResponse(bg *models.Background) BackgroundResponse {
	resp := BackgroundResponse{MimeType: bg.MimeType, Hash: bg.Hash, Bytes: len(bg.Data)}
	if bg.Image != nil {
		resp.Width, resp.Height = bg.Image.Bounds().Dx(), bg.Image.Bounds().Dy()
	}
	return resp
}
