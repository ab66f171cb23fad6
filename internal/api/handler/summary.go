package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/fabricadesoftware/vumock/internal/api/middleware"
	"github.com/fabricadesoftware/vumock/internal/api/validate"
	"github.com/fabricadesoftware/vumock/internal/domain"
	"github.com/fabricadesoftware/vumock/internal/store"
)

type SummaryHandler struct {
	logger *slog.Logger
}

func NewSummaryHandler(logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{logger: logger}
}

// Database reports the per-database aggregate counts. The recognition
// counters are always zero: the free tier the mock mimics never fills
// them in, only request_usage tracks actual traffic.
func (h *SummaryHandler) Database(c *fiber.Ctx) error {
	st, err := middleware.StoreFrom(c)
	if err != nil {
		return err
	}
	if _, err := validate.Management(view(c), st.Now(), noBodyKeys); err != nil {
		return err
	}

	sum := st.Summary()

	return c.JSON(fiber.Map{
		"transaction_id":       domain.RandomHex(),
		"result_code":          domain.ResultSuccess,
		"name":                 sum.Name,
		"active_images":        sum.ActiveImages,
		"inactive_images":      sum.InactiveImages,
		"failed_images":        sum.FailedImages,
		"processing_images":    sum.ProcessingImages,
		"target_quota":         store.TargetQuota,
		"request_quota":        store.RequestQuota,
		"request_usage":        sum.RequestUsage,
		"reco_threshold":       store.RecoThreshold,
		"total_recos":          0,
		"current_month_recos":  0,
		"previous_month_recos": 0,
	})
}

// Target reports the per-target summary record.
func (h *SummaryHandler) Target(c *fiber.Ctx) error {
	st, err := middleware.StoreFrom(c)
	if err != nil {
		return err
	}
	if _, err := validate.Management(view(c), st.Now(), noBodyKeys); err != nil {
		return err
	}

	t, err := st.Get(c.Params("target_id"))
	if err != nil {
		return err
	}
	now := st.Now()

	return c.JSON(fiber.Map{
		"transaction_id":       domain.RandomHex(),
		"result_code":          domain.ResultSuccess,
		"status":               t.StatusAt(now),
		"database_name":        st.Database().Name,
		"target_name":          t.Name,
		"upload_date":          t.UploadDate.Format("2006-01-02"),
		"active_flag":          t.ActiveFlag,
		"tracking_rating":      t.TrackingRatingAt(now),
		"total_recos":          0,
		"current_month_recos":  0,
		"previous_month_recos": 0,
	})
}
