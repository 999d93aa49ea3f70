package handler

import (
	"io"
	"log/slog"
	"net/http"
)

const maxUploadBytes = 10 << 20

// HandleUpload imports manual transactions from an uploaded CSV file.
func (d *Dependencies) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		slog.Warn("upload attempt with invalid method", "method", r.Method, "path", r.URL.Path)
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		slog.Warn("failed to parse multipart form", "error", err, "max_size_mb", 10)
		WriteError(w, http.StatusBadRequest, "File too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		slog.Warn("failed to get file from form", "error", err)
		WriteError(w, http.StatusBadRequest, "Failed to get file")
		return
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		slog.Error("failed to read uploaded file", "filename", header.Filename, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	slog.Info("received file upload", "filename", header.Filename, "size_bytes", len(bytes))

	res, err := d.App.ImportCSV(r.Context(), string(bytes))
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	if res.Imported == 0 && len(res.Errors) > 0 {
		slog.Warn("CSV import rejected every row", "filename", header.Filename, "errors_count", len(res.Errors))
		WriteJSON(w, http.StatusBadRequest, res)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}
