package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/rook-computer/epaper/internal/gateway"
	"github.com/rook-computer/epaper/internal/render"
)

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type sizeMismatchResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Expected int    `json:"expected"`
	Actual   int    `json:"actual"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type uploadResponse struct {
	Success bool   `json:"success"`
	ETag    string `json:"etag,omitempty"`
}

type apiHandlers struct {
	cfg     ServerConfig
	gateway FrameGateway
	logger  sysLogger
}

// handleUpload accepts an already packed frame as the raw body.
func (h *apiHandlers) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	h.store(w, r, body)
}

// handleConvert decodes any supported image, runs it through the pipeline and
// stores the packed result.
func (h *apiHandlers) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	mode, err := render.ParseFitMode(r.URL.Query().Get("fit"))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_fit", err.Error())
		return
	}
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	src, format, err := render.Decode(bytes.NewReader(body))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_image", err.Error())
		return
	}
	res, err := render.Process(src, mode)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_image", err.Error())
		return
	}
	h.logger.Infof("convert", "converted %s %v with fit=%s", format, src.Bounds().Size(), mode)
	h.store(w, r, res.Packed)
}

func (h *apiHandlers) store(w http.ResponseWriter, r *http.Request, data []byte) {
	res, err := h.gateway.Store(r.Context(), data)
	if err != nil {
		var sm *gateway.SizeMismatchError
		if errors.As(err, &sm) {
			writeJSON(w, http.StatusBadRequest, sizeMismatchResponse{
				Error:    "size_mismatch",
				Message:  sm.Error(),
				Expected: sm.Expected,
				Actual:   sm.Actual,
			})
			return
		}
		h.logger.Errorf("upload", "store failed: %v", err)
		writeAPIError(w, http.StatusInternalServerError, "store_failed", err.Error())
		return
	}

	resp := uploadResponse{Success: true}
	if h.cfg.ETags {
		resp.ETag = res.ETag
	}
	h.logger.Infof("upload", "stored %d bytes %s", res.Size, res.ETag)
	writeJSON(w, http.StatusOK, resp)
}

func (h *apiHandlers) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.maxUploadBytes()))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAPIError(w, http.StatusRequestEntityTooLarge, "payload_too_large",
				"request body exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return nil, false
		}
		writeAPIError(w, http.StatusBadRequest, "read_failed", err.Error())
		return nil, false
	}
	return body, true
}

// handleImage serves the packed frame, honouring If-None-Match when ETags are on.
func (h *apiHandlers) handleImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	clientTag := ""
	if h.cfg.ETags {
		clientTag = r.Header.Get("If-None-Match")
	}

	res, ok := h.retrieve(w, r, clientTag)
	if !ok {
		return
	}
	if res.NotModified {
		h.writeNotModified(w, res.ETag)
		return
	}
	h.writeFrame(w, r, "application/octet-stream", res.ETag, res.Data)
}

// handlePreview serves the stored frame as a PNG. Its tag is derived from the
// frame tag so the two representations never share a validator.
func (h *apiHandlers) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	res, ok := h.retrieve(w, r, "")
	if !ok {
		return
	}

	tag := previewTag(res.ETag)
	if h.cfg.ETags && r.Header.Get("If-None-Match") == tag {
		h.writeNotModified(w, tag)
		return
	}

	mono, err := render.Unpack(res.Data, render.Width, render.Height)
	if err != nil {
		h.logger.Errorf("preview", "unpack failed: %v", err)
		writeAPIError(w, http.StatusInternalServerError, "preview_failed", err.Error())
		return
	}
	var buf bytes.Buffer
	if err := render.EncodePreviewPNG(&buf, mono); err != nil {
		writeAPIError(w, http.StatusInternalServerError, "preview_failed", err.Error())
		return
	}
	h.writeFrame(w, r, "image/png", tag, buf.Bytes())
}

func (h *apiHandlers) retrieve(w http.ResponseWriter, r *http.Request, clientTag string) (gateway.RetrieveResult, bool) {
	res, err := h.gateway.Retrieve(r.Context(), clientTag)
	if err != nil {
		if gateway.IsNotFound(err) {
			writeAPIError(w, http.StatusNotFound, "not_found", "No image")
			return res, false
		}
		h.logger.Errorf("image", "retrieve failed: %v", err)
		writeAPIError(w, http.StatusInternalServerError, "retrieve_failed", err.Error())
		return res, false
	}
	return res, true
}

func (h *apiHandlers) writeNotModified(w http.ResponseWriter, tag string) {
	w.Header().Set("ETag", tag)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusNotModified)
}

func (h *apiHandlers) writeFrame(w http.ResponseWriter, r *http.Request, contentType, tag string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if h.cfg.ETags {
		w.Header().Set("ETag", tag)
		w.Header().Set("Cache-Control", "no-cache")
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(data)
}

func previewTag(frameTag string) string {
	return strings.TrimSuffix(frameTag, `"`) + `-png"`
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: code, Message: message})
}
