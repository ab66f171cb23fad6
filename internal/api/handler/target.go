package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/fabricadesoftware/vumock/internal/api/middleware"
	"github.com/fabricadesoftware/vumock/internal/api/validate"
	"github.com/fabricadesoftware/vumock/internal/domain"
	"github.com/fabricadesoftware/vumock/internal/store"
)

var createKeys = validate.Keys{
	Mandatory: []string{"name", "width", "image"},
	Optional:  []string{"active_flag", "application_metadata"},
}

var updateKeys = validate.Keys{
	Optional: []string{"name", "width", "image", "active_flag", "application_metadata"},
}

var noBodyKeys = validate.Keys{NoBody: true}

type TargetHandler struct {
	logger *slog.Logger
}

func NewTargetHandler(logger *slog.Logger) *TargetHandler {
	return &TargetHandler{logger: logger}
}

// Create registers a new target. The target starts processing and only
// settles into success or failed after the processing delay.
func (h *TargetHandler) Create(c *fiber.Ctx) error {
	st, err := middleware.StoreFrom(c)
	if err != nil {
		return err
	}
	fields, err := validate.Management(view(c), st.Now(), createKeys)
	if err != nil {
		return err
	}

	image, err := validate.DecodeBase64(fields["image"].(string))
	if err != nil {
		return domain.ErrFail.WithCause(err)
	}

	// Omitted or null active_flag means active.
	activeFlag := true
	if raw, ok := fields["active_flag"]; ok && raw != nil {
		activeFlag = raw.(bool)
	}
	var metadata *string
	if raw, ok := fields["application_metadata"]; ok && raw != nil {
		value := raw.(string)
		metadata = &value
	}

	t, err := st.Create(store.CreateParams{
		Name:       fields["name"].(string),
		Width:      fields["width"].(float64),
		Image:      image,
		ActiveFlag: activeFlag,
		Metadata:   metadata,
	})
	if err != nil {
		return err
	}

	h.logger.Info("target created",
		slog.String("target_id", t.ID),
		slog.String("name", t.Name),
	)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"transaction_id": domain.RandomHex(),
		"result_code":    domain.ResultTargetCreated,
		"target_id":      t.ID,
	})
}

// List returns the IDs of all non-deleted targets.
func (h *TargetHandler) List(c *fiber.Ctx) error {
	st, err := middleware.StoreFrom(c)
	if err != nil {
		return err
	}
	if _, err := validate.Management(view(c), st.Now(), noBodyKeys); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"transaction_id": domain.RandomHex(),
		"result_code":    domain.ResultSuccess,
		"results":        st.List(),
	})
}

// Get returns one target record with its current status.
func (h *TargetHandler) Get(c *fiber.Ctx) error {
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
		"transaction_id": domain.RandomHex(),
		"result_code":    domain.ResultSuccess,
		"target_record": fiber.Map{
			"target_id":       t.ID,
			"active_flag":     t.ActiveFlag,
			"name":            t.Name,
			"width":           t.Width,
			"tracking_rating": t.TrackingRatingAt(now),
			"reco_rating":     "",
		},
		"status": t.StatusAt(now),
	})
}

// Update modifies an existing target. Replacing the image sends the target
// back into processing with a freshly drawn rating.
func (h *TargetHandler) Update(c *fiber.Ctx) error {
	st, err := middleware.StoreFrom(c)
	if err != nil {
		return err
	}
	fields, err := validate.Management(view(c), st.Now(), updateKeys)
	if err != nil {
		return err
	}

	// Null is tolerated on create but rejected here: there is no way to
	// unset these fields.
	if raw, ok := fields["active_flag"]; ok && raw == nil {
		return domain.ErrFail
	}
	if raw, ok := fields["application_metadata"]; ok && raw == nil {
		return domain.ErrFail
	}

	var params store.UpdateParams
	if raw, ok := fields["name"]; ok {
		name := raw.(string)
		params.Name = &name
	}
	if raw, ok := fields["width"]; ok {
		width := raw.(float64)
		params.Width = &width
	}
	if raw, ok := fields["active_flag"]; ok {
		flag := raw.(bool)
		params.ActiveFlag = &flag
	}
	if raw, ok := fields["application_metadata"]; ok {
		metadata := raw.(string)
		params.Metadata = &metadata
	}
	if raw, ok := fields["image"]; ok {
		image, err := validate.DecodeBase64(raw.(string))
		if err != nil {
			return domain.ErrFail.WithCause(err)
		}
		params.Image = image
	}

	if _, err := st.Update(c.Params("target_id"), params); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"transaction_id": domain.RandomHex(),
		"result_code":    domain.ResultSuccess,
	})
}

// Delete removes a target. The target vanishes from the management API at
// once; the query API keeps reacting to it for the deletion window.
func (h *TargetHandler) Delete(c *fiber.Ctx) error {
	st, err := middleware.StoreFrom(c)
	if err != nil {
		return err
	}
	if _, err := validate.Management(view(c), st.Now(), noBodyKeys); err != nil {
		return err
	}

	if err := st.Delete(c.Params("target_id")); err != nil {
		return err
	}

	h.logger.Info("target deleted", slog.String("target_id", c.Params("target_id")))

	return c.JSON(fiber.Map{
		"transaction_id": domain.RandomHex(),
		"result_code":    domain.ResultSuccess,
	})
}

// Duplicates lists other targets carrying an identical image.
func (h *TargetHandler) Duplicates(c *fiber.Ctx) error {
	st, err := middleware.StoreFrom(c)
	if err != nil {
		return err
	}
	if _, err := validate.Management(view(c), st.Now(), noBodyKeys); err != nil {
		return err
	}

	similar, err := st.Duplicates(c.Params("target_id"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"transaction_id":  domain.RandomHex(),
		"result_code":     domain.ResultSuccess,
		"similar_targets": similar,
	})
}
