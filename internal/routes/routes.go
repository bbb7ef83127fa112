package routes

const (
	Health = "/health"

	WithdrawalsGenerate = "/api/v1/withdrawals/generate"
	Withdrawals         = "/api/v1/withdrawals"
	WithdrawalValidate  = "/api/v1/withdrawals/{id}/validate"
	WithdrawalPay       = "/api/v1/withdrawals/{id}/pay"

	LandlordCharges = "/api/v1/landlord-charges"
	LandlordCharge  = "/api/v1/landlord-charges/{id}"

	LeaseLedger   = "/api/v1/leases/{id}/ledger"
	LeaseCoverage = "/api/v1/leases/{id}/coverage"
	LandlordRecap = "/api/v1/landlords/{id}/recap"
)
