package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/shaiso/Tabula/internal/dataset"
	"github.com/shaiso/Tabula/internal/telemetry"
)

// maxUploadBytes — предел размера загружаемого файла (64 MiB).
const maxUploadBytes = 64 << 20

// ListDatasets обрабатывает GET /api/v1/datasets
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	limit := mustParseInt(r.URL.Query().Get("limit"), 50)
	offset := mustParseInt(r.URL.Query().Get("offset"), 0)

	datasets, err := h.datasetRepo.List(r.Context(), limit, offset)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	resp := make([]DatasetResponse, 0, len(datasets))
	for _, d := range datasets {
		resp = append(resp, DatasetFromDomain(d))
	}
	List(w, resp, len(resp))
}

// UploadDataset обрабатывает POST /api/v1/datasets
// Принимает multipart/form-data с полем "file".
func (h *Handler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		BadRequest(w, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	d, err := h.store.Save(header.Filename, file)
	if err != nil {
		if errors.Is(err, dataset.ErrUnsupportedFormat) {
			BadRequest(w, err.Error())
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	if err := h.datasetRepo.Create(r.Context(), d); err != nil {
		// Файл без записи в БД бесполезен — убираем.
		h.store.Delete(d)
		InternalError(w, h.logger, err)
		return
	}

	telemetry.DatasetsUploaded.WithLabelValues(d.Kind).Inc()
	h.logger.Info("dataset uploaded",
		"dataset_id", d.ID,
		"original_name", d.OriginalName,
		"kind", d.Kind,
		"sheets", len(d.Sheets),
	)

	Created(w, DatasetFromDomain(*d))
}

// GetDataset обрабатывает GET /api/v1/datasets/{id}
func (h *Handler) GetDataset(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid dataset id")
		return
	}

	d, err := h.datasetRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "dataset not found") {
		return
	}

	Success(w, DatasetFromDomain(*d))
}

// PreviewDataset обрабатывает GET /api/v1/datasets/{id}/preview
// Query-параметры: sheet (имя листа, default первый), rows (default 50).
func (h *Handler) PreviewDataset(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid dataset id")
		return
	}

	d, err := h.datasetRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "dataset not found") {
		return
	}

	sheet := r.URL.Query().Get("sheet")
	rows := mustParseInt(r.URL.Query().Get("rows"), 50)

	t, err := h.store.Open(d, sheet, dataset.LoadOptions{})
	if err != nil {
		switch {
		case errors.Is(err, dataset.ErrSheetNotFound):
			NotFound(w, err.Error())
		case errors.Is(err, dataset.ErrNotFound):
			NotFound(w, "dataset file not found")
		default:
			InternalError(w, h.logger, err)
		}
		return
	}

	info, _ := d.Sheet(sheet)
	resp := PreviewResponse{
		Columns: t.Columns(),
		Rows:    t.Records(rows),
		Total:   t.NumRows(),
	}
	if info != nil {
		resp.Sheet = info.Name
	}
	Success(w, resp)
}

// DeleteDataset обрабатывает DELETE /api/v1/datasets/{id}
func (h *Handler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid dataset id")
		return
	}

	d, err := h.datasetRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "dataset not found") {
		return
	}

	if err := h.datasetRepo.Delete(r.Context(), id); HandleRepoError(w, h.logger, err, "dataset not found") {
		return
	}

	if err := h.store.Delete(d); err != nil {
		h.logger.Warn("failed to delete dataset file",
			"dataset_id", id,
			"filename", d.Filename,
			"error", err,
		)
	}

	h.logger.Info("dataset deleted", "dataset_id", id)
	NoContent(w)
}
