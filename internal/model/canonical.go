package model

// 规范科目（自存仓经营报表口径）
const (
	KeyRentalIncome     = "Rental Income (1% monthly increase)"
	KeyDiscounts        = "Discounts Given (Accrued per Month)"
	KeyBadDebt          = "Bad Debt/Rental Refunds"
	KeyAdminFees        = "Administrative Fees"
	KeyLateFees         = "Late Fees"
	KeyMerchandiseSales = "Merchandise Sales"
	KeyTenantInsurance  = "Tenant Insurance"
	KeyTruckRental      = "Truck Rental Income"
	KeyOtherIncome      = "Other Income"

	KeyPayroll           = "Payroll & Benefits"
	KeyPropertyTaxes     = "Property Taxes"
	KeyPropertyInsurance = "Property Insurance"
	KeyUtilities         = "Utilities"
	KeyRepairs           = "Repairs & Maintenance"
	KeyMarketing         = "Advertising & Marketing"
	KeyManagementFees    = "Management Fees"
	KeyOfficeAdmin       = "Office & Administrative"
	KeyCreditCardFees    = "Credit Card Fees"
	KeySoftware          = "Software & Technology"
	KeyLandscaping       = "Landscaping & Snow Removal"
	KeySecurity          = "Security & Alarm"
	KeyCostOfGoods       = "Cost of Goods Sold"
	KeyProfessionalFees  = "Professional Fees"
	KeyOtherExpenses     = "Other Expenses"

	KeyTotalOperatingIncome  = "Total Operating Income"
	KeyTotalOperatingExpense = "Total Operating Expense"
	KeyNetOperatingIncome    = "Net Operating Income"
)

// IsTotalsKey 汇总科目从不由逐行提取写入
func IsTotalsKey(key string) bool {
	switch key {
	case KeyTotalOperatingIncome, KeyTotalOperatingExpense, KeyNetOperatingIncome:
		return true
	}
	return false
}

// IsContraKey 备抵科目，提取后恒为非正
func IsContraKey(key string) bool {
	return key == KeyDiscounts || key == KeyBadDebt
}

// ScopedKey 同名行已出现在另一区间时使用的序列键，如 "Other (expense)"
func ScopedKey(key string, s Section) string {
	return key + " (" + string(s) + ")"
}
