package controllers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lokapro/ledger-service/internal/repositories"
	"github.com/lokapro/ledger-service/internal/services"
	"github.com/lokapro/ledger-service/internal/utils"
)

// LedgerController serves the read-side views: a lease's month-by-month
// rent ledger and a landlord's monthly recap.
type LedgerController struct {
	registry    *repositories.Registry
	coverageSvc *services.CoverageService
	recapSvc    *services.RecapService
	txRunner    repositories.TxRunner
	validate    *validator.Validate
}

func NewLedgerController(
	registry *repositories.Registry,
	coverageSvc *services.CoverageService,
	recapSvc *services.RecapService,
	txRunner repositories.TxRunner,
) *LedgerController {
	return &LedgerController{
		registry:    registry,
		coverageSvc: coverageSvc,
		recapSvc:    recapSvc,
		txRunner:    txRunner,
		validate:    validator.New(),
	}
}

// GET /api/v1/leases/{id}/ledger?from=YYYY-MM&to=YYYY-MM
func (c *LedgerController) LeaseLedgerHandler(w http.ResponseWriter, r *http.Request) {
	leaseID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	from, ok := queryMonth(w, r, "from")
	if !ok {
		return
	}
	to, ok := queryMonth(w, r, "to")
	if !ok {
		return
	}

	lease, err := c.registry.Leases.GetByID(r.Context(), leaseID)
	if err != nil {
		utils.Logger.WithError(err).Error("Lease lookup failed")
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Lease lookup failed", nil, err)
		return
	}
	if lease == nil {
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "Lease not found", nil)
		return
	}

	ledger, err := c.coverageSvc.LedgerForLease(r.Context(), lease, from, to)
	if err != nil {
		utils.Logger.WithError(err).Error("Ledger resolution failed")
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Ledger resolution failed", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, ledger)
}

// GET /api/v1/leases/{id}/coverage?month=YYYY-MM
func (c *LedgerController) LeaseCoverageHandler(w http.ResponseWriter, r *http.Request) {
	leaseID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	month, ok := queryMonth(w, r, "month")
	if !ok {
		return
	}

	lease, err := c.registry.Leases.GetByID(r.Context(), leaseID)
	if err != nil {
		utils.Logger.WithError(err).Error("Lease lookup failed")
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Lease lookup failed", nil, err)
		return
	}
	if lease == nil {
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "Lease not found", nil)
		return
	}

	result, err := c.coverageSvc.Resolve(r.Context(), lease, month)
	if err != nil {
		utils.Logger.WithError(err).Error("Coverage resolution failed")
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Coverage resolution failed", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, result)
}

// GET /api/v1/landlords/{id}/recap?month=YYYY-MM
// Returns the stored recap row if one exists, otherwise computes the
// figures on the fly without persisting anything.
func (c *LedgerController) LandlordRecapHandler(w http.ResponseWriter, r *http.Request) {
	landlordID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	month, ok := queryMonth(w, r, "month")
	if !ok {
		return
	}

	recap, err := c.registry.Recaps.GetByLandlordAndMonth(r.Context(), landlordID, month)
	if err != nil {
		utils.Logger.WithError(err).Error("Recap lookup failed")
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Recap lookup failed", nil, err)
		return
	}
	if recap != nil {
		utils.RespondWithJSON(w, http.StatusOK, recap)
		return
	}

	figures, err := c.recapSvc.Aggregate(r.Context(), c.registry, landlordID, month)
	if err != nil {
		utils.Logger.WithError(err).Error("Recap aggregation failed")
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Recap aggregation failed", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, figures)
}

// POST /api/v1/landlords/{id}/recap?month=YYYY-MM
// Builds (or refreshes) and persists the landlord's recap for a month.
func (c *LedgerController) BuildRecapHandler(w http.ResponseWriter, r *http.Request) {
	landlordID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	month, ok := queryMonth(w, r, "month")
	if !ok {
		return
	}

	var built any
	err := c.txRunner.WithinTx(r.Context(), func(reg *repositories.Registry) error {
		recap, err := c.recapSvc.BuildRecap(r.Context(), reg, landlordID, month)
		if err != nil {
			return err
		}
		built = recap
		return nil
	})
	if err != nil {
		utils.Logger.WithError(err).Error("Recap build failed")
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Recap build failed", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, built)
}

func queryMonth(w http.ResponseWriter, r *http.Request, key string) (time.Time, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Missing "+key+" query parameter (expected YYYY-MM)", nil)
		return time.Time{}, false
	}
	parsed, err := time.Parse("2006-01", raw)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid "+key+" query parameter (expected YYYY-MM)", nil, err)
		return time.Time{}, false
	}
	return utils.MonthStart(parsed), true
}
