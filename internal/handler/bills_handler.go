package handler

import (
	"io"
	"net/http"

	"github.com/finaura/finaura-go/internal/domain"
	"github.com/finaura/finaura-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// maxUploadMemory bounds how much of a multipart body is held in memory.
const maxUploadMemory = 10 << 20

// ============================================================
// Bill ingestion — POST /v1/bills/upload
// ============================================================

// uploadBillHandler accepts a multipart form with a user_id field and a
// file part, runs the ingestion pipeline and returns the persisted record.
func uploadBillHandler(svc *service.BillService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bills/upload")
		defer span.End()

		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			writeError(w, http.StatusBadRequest, "expected multipart/form-data body")
			return
		}

		userID := r.FormValue("user_id")
		if userID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		span.SetAttributes(attribute.String("user.id", userID))

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "file is required")
			return
		}
		defer file.Close()

		image, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read uploaded file")
			return
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = http.DetectContentType(image)
		}

		record, err := svc.Ingest(ctx, userID, image, contentType)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, domain.UploadResponse{
			Success: true,
			Bill:    record,
		})
	}
}

// ============================================================
// Bill history — GET /v1/users/{userId}/bills
// ============================================================

func listBillsHandler(svc *service.BillService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/bills")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		span.SetAttributes(attribute.String("user.id", userID))

		bills, err := svc.ListBills(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if bills == nil {
			bills = []domain.BillRecord{}
		}

		writeJSON(w, http.StatusOK, map[string]any{"bills": bills})
	}
}
