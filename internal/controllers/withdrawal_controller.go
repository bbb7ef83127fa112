package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/lokapro/ledger-service/internal/dtos"
	"github.com/lokapro/ledger-service/internal/models"
	"github.com/lokapro/ledger-service/internal/services"
	"github.com/lokapro/ledger-service/internal/utils"
)

type WithdrawalController struct {
	withdrawalService *services.WithdrawalService
	validate          *validator.Validate
}

func NewWithdrawalController(s *services.WithdrawalService) *WithdrawalController {
	return &WithdrawalController{
		withdrawalService: s,
		validate:          validator.New(),
	}
}

// POST /api/v1/withdrawals/generate
// Batch entry point for the out-of-process scheduler/CLI. Always
// responds with the structured summary; a single landlord's failure
// never fails the call.
func (c *WithdrawalController) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.GenerateWithdrawalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Malformed JSON body", nil, err)
		return
	}
	if err := c.validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid generation request", nil, err)
		return
	}

	summary, err := c.withdrawalService.GenerateMonthlyWithdrawals(r.Context(), req.Month, req.Year, req.TriggeredBy)
	if err != nil {
		var vErr *utils.ValidationError
		if errors.As(err, &vErr) {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, vErr.Error(), nil)
			return
		}
		utils.Logger.WithError(err).Error("Withdrawal batch generation failed")
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Batch generation failed", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, summary)
}

// POST /api/v1/withdrawals
// Manual (administrator) entry point: bypasses the temporal gate.
func (c *WithdrawalController) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.CreateWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Malformed JSON body", nil, err)
		return
	}
	if err := c.validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid withdrawal request", nil, err)
		return
	}

	month := time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, time.UTC)
	created, err := c.withdrawalService.CreateWithdrawalManual(r.Context(), req.LandlordID, month, req.RequestedBy)
	if err != nil {
		respondWithdrawalError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, toWithdrawalDTO(created))
}

// POST /api/v1/withdrawals/{id}/validate
func (c *WithdrawalController) ValidateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := c.withdrawalService.ValidateWithdrawal(r.Context(), id); err != nil {
		respondWithdrawalError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": string(models.WithdrawalStatusValidated)})
}

// POST /api/v1/withdrawals/{id}/pay
func (c *WithdrawalController) MarkPaidHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := c.withdrawalService.MarkWithdrawalPaid(r.Context(), id); err != nil {
		respondWithdrawalError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": string(models.WithdrawalStatusPaid)})
}

func pathUUID(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[key])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid "+key, nil, err)
		return uuid.Nil, false
	}
	return id, true
}

func respondWithdrawalError(w http.ResponseWriter, err error) {
	var dup *utils.DuplicateError
	var elig *utils.EligibilityError
	var vErr *utils.ValidationError
	switch {
	case errors.As(err, &dup):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeConflict, dup.Error(), nil)
	case errors.As(err, &elig):
		code := utils.ErrCodeNotEligible
		if elig.Kind == utils.EligibilityOutsideWindow {
			code = utils.ErrCodeOutsideWindow
		}
		utils.RespondErrorWithCode(w, http.StatusUnprocessableEntity, code, elig.Error(), elig.Missing)
	case errors.As(err, &vErr):
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, vErr.Error(), nil)
	default:
		utils.Logger.WithError(err).Error("Withdrawal operation failed")
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Withdrawal operation failed", nil, err)
	}
}

func toWithdrawalDTO(w *models.Withdrawal) dtos.WithdrawalDTO {
	return dtos.WithdrawalDTO{
		ID:                  w.ID,
		LandlordID:          w.LandlordID,
		PeriodMonth:         w.PeriodMonth.Format("2006-01"),
		GrossRentTotal:      w.GrossRentTotal.String(),
		DeductibleTotal:     w.DeductibleTotal.String(),
		LandlordChargeTotal: w.LandlordChargeTotal.String(),
		NetAmount:           w.NetAmount.String(),
		Commission:          w.Commission.String(),
		NetPaid:             w.NetPaid.String(),
		Status:              string(w.Status),
		RequestedBy:         w.RequestedBy,
		CreatedAt:           w.CreatedAt,
	}
}
