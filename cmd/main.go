package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	_ "time/tzdata"

	"github.com/lokapro/ledger-service/internal/app"
	"github.com/lokapro/ledger-service/internal/config"
	"github.com/lokapro/ledger-service/internal/constants"
	"github.com/lokapro/ledger-service/internal/controllers"
	"github.com/lokapro/ledger-service/internal/events"
	"github.com/lokapro/ledger-service/internal/repositories"
	"github.com/lokapro/ledger-service/internal/routes"
	"github.com/lokapro/ledger-service/internal/services"
	"github.com/lokapro/ledger-service/internal/utils"
)

func main() {
	utils.InitLogger("ledger-service")
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize ledger-service:", err)
	}
	defer application.Close()

	// Repositories
	registry := repositories.NewRegistry(application.DB)
	txRunner := repositories.NewTxRunner(application.DB)

	if cfg.SeedDbWithDemoData {
		if err := app.SeedDemoData(context.Background(), registry); err != nil {
			utils.Logger.Fatal("Failed to seed demo data:", err)
		}
	}

	// Services
	publisher := events.NewLogPublisher()
	coverageService := services.NewCoverageService(registry.Payments)
	recapService := services.NewRecapService(coverageService, publisher)
	withdrawalService := services.NewWithdrawalService(registry, txRunner, recapService, publisher)
	deferralService := services.NewChargeDeferralService(registry, txRunner, recapService)

	// Controllers
	healthController := controllers.NewHealthController(application)
	withdrawalController := controllers.NewWithdrawalController(withdrawalService)
	landlordChargeController := controllers.NewLandlordChargeController(deferralService)
	ledgerController := controllers.NewLedgerController(registry, coverageService, recapService, txRunner)

	// Router setup
	router := mux.NewRouter()

	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)

	router.HandleFunc(routes.WithdrawalsGenerate, withdrawalController.GenerateHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.Withdrawals, withdrawalController.CreateHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.WithdrawalValidate, withdrawalController.ValidateHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.WithdrawalPay, withdrawalController.MarkPaidHandler).Methods(http.MethodPost)

	router.HandleFunc(routes.LandlordCharges, landlordChargeController.CreateHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.LandlordCharge, landlordChargeController.UpdateAmountHandler).Methods(http.MethodPut)
	router.HandleFunc(routes.LandlordCharge, landlordChargeController.DeleteHandler).Methods(http.MethodDelete)

	router.HandleFunc(routes.LeaseLedger, ledgerController.LeaseLedgerHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.LeaseCoverage, ledgerController.LeaseCoverageHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.LandlordRecap, ledgerController.LandlordRecapHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.LandlordRecap, ledgerController.BuildRecapHandler).Methods(http.MethodPost)

	// Cron job setup
	if cfg.SchedulerEnabled {
		c := cron.New(cron.WithLocation(time.UTC))

		// The generation window check inside the service decides whether a
		// given day actually produces withdrawals, so the job can run daily.
		_, err = c.AddFunc(constants.WithdrawalGenerationCronSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), constants.WithdrawalGenerationTimeout)
			defer cancel()

			now := time.Now().UTC()
			utils.Logger.Info("Starting withdrawal generation cron job...")
			summary, err := withdrawalService.GenerateMonthlyWithdrawals(ctx, int(now.Month()), now.Year(), constants.BatchTriggeredBySystem)
			if err != nil {
				utils.Logger.WithError(err).Error("Failed to generate monthly withdrawals")
				return
			}
			utils.Logger.Infof(
				"Withdrawal generation done: created=%d duplicates=%d rejected=%d",
				summary.CreatedCount, summary.DuplicateCount, summary.RejectedCount,
			)
		})
		if err != nil {
			utils.Logger.WithError(err).Fatal("Failed to schedule withdrawal generation cron")
		}

		c.Start()
		utils.Logger.Info("Scheduled withdrawal generation cron job")
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AppUrl},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("ledger-service failed to start:", err)
	}
}
