package media

import (
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/EgorLis/eng-community/internal/domain"
	"github.com/EgorLis/eng-community/internal/transport/web/logx"
	"github.com/EgorLis/eng-community/internal/transport/web/mw"
	v1 "github.com/EgorLis/eng-community/internal/transport/web/v1"
)

const keyPrefix = "media/"

type Handler struct {
	Log     *log.Logger
	Storage domain.BlobStorage
}

// Upload godoc
// @Summary     Upload media to S3
// @Description Принимает файл в multipart/form-data и сохраняет в S3 (MinIO). Возвращает storage key, размер и MIME.
// @Tags        media
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file  formData  file  true  "Файл для загрузки"
// @Success     201   {object}  domain.BlobPutResult
// @Failure     400   {object}  domain.APIEnvelope
// @Failure     401   {object}  domain.APIEnvelope
// @Failure     500   {object}  domain.APIEnvelope
// @Router      /v1/media [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	const op = "media.upload"
	reqID := mw.RequestIDFromCtx(r.Context())

	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB в памяти, остальное во временные файлы
		logx.Error(h.Log, reqID, op, "invalid multipart", err)
		v1.WriteDomainError(w, r, fmt.Errorf("%w: %w", domain.ErrBadParams, err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		logx.Error(h.Log, reqID, op, "missing file", err)
		v1.WriteDomainError(w, r, fmt.Errorf("%w: %w", domain.ErrBadParams, err))
		return
	}
	defer file.Close()

	res, err := h.Storage.Put(r.Context(), file, header.Filename, detectMime(header))
	if err != nil {
		logx.Error(h.Log, reqID, op, "put failed", err, "name", header.Filename)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "key", res.StorageKey, "size", res.Size)
	v1.WriteJSON(w, r, http.StatusCreated, res)
}

func detectMime(h *multipart.FileHeader) string {
	ct := h.Header.Get("Content-Type")
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}

// Delete godoc
// @Summary     Delete media from S3
// @Description Удаляет объект по его storage key (тем, что вернулся при загрузке).
// @Tags        media
// @Security    BearerAuth
// @Param       key  query  string  true  "Storage key (например: media/sha256/ab12cd...)"
// @Success     204
// @Failure     400  {object}  domain.APIEnvelope
// @Failure     500  {object}  domain.APIEnvelope
// @Router      /v1/media [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "media.delete"
	reqID := mw.RequestIDFromCtx(r.Context())

	// удалить можно только то, что лежит под media/
	key := r.URL.Query().Get("key")
	if !strings.HasPrefix(key, keyPrefix) || strings.Contains(key, "..") {
		logx.Error(h.Log, reqID, op, "bad key", domain.ErrBadParams, "key", key)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	if err := h.Storage.Delete(r.Context(), key); err != nil {
		logx.Error(h.Log, reqID, op, "delete failed", err, "key", key)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "key", key)
	v1.WriteNoContent(w, r)
}
