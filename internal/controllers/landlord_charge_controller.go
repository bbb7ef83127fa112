package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v4"

	"github.com/lokapro/ledger-service/internal/dtos"
	"github.com/lokapro/ledger-service/internal/models"
	"github.com/lokapro/ledger-service/internal/services"
	"github.com/lokapro/ledger-service/internal/utils"
)

type LandlordChargeController struct {
	deferralService *services.ChargeDeferralService
	validate        *validator.Validate
}

func NewLandlordChargeController(s *services.ChargeDeferralService) *LandlordChargeController {
	return &LandlordChargeController{
		deferralService: s,
		validate:        validator.New(),
	}
}

// POST /api/v1/landlord-charges
// Persists the charge and immediately runs the deferral check: when the
// target month's withdrawal is already locked, the stored charge comes
// back with a later effective month.
func (c *LandlordChargeController) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.CreateLandlordChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Malformed JSON body", nil, err)
		return
	}
	if err := c.validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid landlord charge request", nil, err)
		return
	}

	charge := &models.LandlordCharge{
		LandlordID:     req.LandlordID,
		Amount:         req.Amount,
		Label:          req.Label,
		EffectiveMonth: time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, time.UTC),
	}
	if err := c.deferralService.CreateCharge(r.Context(), charge); err != nil {
		respondChargeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, toLandlordChargeDTO(charge))
}

// PUT /api/v1/landlord-charges/{id}
func (c *LandlordChargeController) UpdateAmountHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dtos.UpdateLandlordChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Malformed JSON body", nil, err)
		return
	}
	if err := c.validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid landlord charge update", nil, err)
		return
	}

	charge, err := c.deferralService.UpdateChargeAmount(r.Context(), id, req.Amount)
	if err != nil {
		respondChargeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toLandlordChargeDTO(charge))
}

// DELETE /api/v1/landlord-charges/{id}
func (c *LandlordChargeController) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := c.deferralService.DeleteCharge(r.Context(), id); err != nil {
		respondChargeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func respondChargeError(w http.ResponseWriter, err error) {
	var vErr *utils.ValidationError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "Landlord charge not found", nil)
	case errors.As(err, &vErr):
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, vErr.Error(), nil)
	default:
		utils.Logger.WithError(err).Error("Landlord charge operation failed")
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Landlord charge operation failed", nil, err)
	}
}

func toLandlordChargeDTO(ch *models.LandlordCharge) dtos.LandlordChargeDTO {
	return dtos.LandlordChargeDTO{
		ID:             ch.ID,
		LandlordID:     ch.LandlordID,
		Amount:         ch.Amount.String(),
		Label:          ch.Label,
		EffectiveMonth: ch.EffectiveMonth.Format("2006-01"),
		Status:         string(ch.Status),
		DeferralCount:  ch.DeferralCount,
		CreatedAt:      ch.CreatedAt,
	}
}
