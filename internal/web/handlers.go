package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/equipreport/internal/core"
	"github.com/JonMunkholm/equipreport/internal/equipment"
	"github.com/go-chi/chi/v5"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temp files.
const multipartMemory = 1 << 20

// handleUpload ingests one multipart "file" part and returns 201 with the
// stored dataset summary.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	if maxSize <= 0 {
		maxSize = core.MaxFileSize
	}
	// Leave room for the multipart envelope around the file.
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartMemory)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.respondError(w, r, &core.FileTooLargeError{Limit: maxSize})
			return
		}
		writeError(w, http.StatusBadRequest, "FILE004", "Invalid upload form", "Send the file as multipart/form-data in a field named \"file\"")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, core.ErrNoFile)
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		s.respondError(w, r, &core.FileTooLargeError{Limit: maxSize})
		return
	}

	filename := core.UploadName(header.Filename)
	if err := core.CheckUploadName(filename); err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.Ingest(ctx, ownerID(r), filename, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/datasets/"+result.Dataset.ID)
	writeJSON(w, http.StatusCreated, result)
}

// datasetList is the body of GET /api/datasets.
type datasetList struct {
	Datasets []equipment.ArtifactSummary `json:"datasets"`
	Count    int                         `json:"count"`
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.ListArtifacts(r.Context(), ownerID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if list == nil {
		list = []equipment.ArtifactSummary{}
	}
	writeJSON(w, http.StatusOK, datasetList{Datasets: list, Count: len(list)})
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	a, err := s.service.GetArtifact(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteArtifact(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReport renders the PDF report for a dataset with disposition d.
func (s *Server) handleReport(d core.Disposition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := s.service.GetArtifact(r.Context(), ownerID(r), chi.URLParam(r, "id"))
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		report, err := s.service.RenderReport(r.Context(), a, d)
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", report.ContentType)
		w.Header().Set("Content-Disposition", report.ContentDisposition())
		w.Header().Set("Content-Length", strconv.Itoa(len(report.Body)))
		w.Header().Set("Cache-Control", "private, no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(report.Body)
	}
}

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status  string                   `json:"status"`
	Uploads core.UploadLimiterStatus `json:"uploads"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Uploads: s.service.UploadLimiterStatus(),
	})
}
