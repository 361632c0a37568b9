package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/blob"
	"github.com/groundcrewhq/groundcrew/internal/bulkupload"
	"github.com/groundcrewhq/groundcrew/internal/store"
)

// maxRosterBytes caps uploaded spreadsheets at 10 MiB.
const maxRosterBytes = 10 << 20

// UploadsHandler imports staff rosters from spreadsheets. The original
// file is archived to blob storage; row failures never block other rows.
type UploadsHandler struct {
	Staff   *store.StaffStore
	Uploads *store.BulkUploadStore
	Blob    *blob.Client
	Log     *zap.Logger
}

// Template serves an empty roster workbook.
func (h *UploadsHandler) Template(w http.ResponseWriter, r *http.Request) {
	contents, err := bulkupload.Template()
	if err != nil {
		h.Log.Error("failed to build roster template", zap.Error(err))
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to build template"})
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="roster-template.xlsx"`)
	_, _ = w.Write(contents)
}

// ImportRoster parses an uploaded spreadsheet and creates a staff row per
// valid line.
func (h *UploadsHandler) ImportRoster(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRosterBytes)
	if err := r.ParseMultipartForm(maxRosterBytes); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "expected a multipart upload under 10MB"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "file field is required"})
		return
	}
	defer file.Close()

	contents, err := io.ReadAll(file)
	if err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read upload"})
		return
	}

	result, err := bulkupload.ParseRoster(bytes.NewReader(contents))
	if err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "could not parse spreadsheet"})
		return
	}

	actor := actorFrom(r)
	rowErrors := append([]bulkupload.RowError(nil), result.RowErrors...)
	imported := 0
	for _, params := range result.Staff {
		if _, err := h.Staff.Create(r.Context(), params, actor); err != nil {
			h.Log.Warn("roster row failed to import", zap.String("name", params.Name), zap.Error(err))
			rowErrors = append(rowErrors, bulkupload.RowError{
				Reason: fmt.Sprintf("%s: %v", params.Name, err),
			})
			continue
		}
		imported++
	}

	// Archive the original file; a blob failure is logged but the import
	// outcome stands.
	var blobURL *string
	if h.Blob != nil {
		url, err := h.Blob.Upload(r.Context(), "uploads/rosters",
			fmt.Sprintf("%s-%s", time.Now().UTC().Format("20060102T150405Z"), header.Filename), contents)
		if err != nil {
			h.Log.Warn("failed to archive roster upload", zap.Error(err))
		} else {
			blobURL = &url
		}
	}

	upload, err := h.Uploads.Record(r.Context(), header.Filename, blobURL,
		result.Total, imported, result.Total-imported, rowErrors)
	if err != nil {
		h.Log.Error("failed to record bulk upload", zap.Error(err))
		sendStoreError(w, err, "import finished but could not be recorded")
		return
	}
	sendJSON(w, http.StatusCreated, upload)
}

// List returns past import runs.
func (h *UploadsHandler) List(w http.ResponseWriter, r *http.Request) {
	uploads, err := h.Uploads.List(r.Context(), 0)
	if err != nil {
		h.Log.Error("failed to list bulk uploads", zap.Error(err))
		sendStoreError(w, err, "failed to list imports")
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"uploads": uploads, "total": len(uploads)})
}
