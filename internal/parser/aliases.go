package parser

import (
	"fmt"

	"proforma/internal/model"
)

type aliasEntry struct {
	Key     string
	Section model.Section
	Aliases []string
}

// aliasTable 规范科目与其常见写法（多对一）；同时给出写入模板时可接受的目标标签顺序。
// 进程级常量，init 时建立索引，之后只读。
var aliasTable = []aliasEntry{
	{model.KeyRentalIncome, model.SectionIncome, []string{
		"Rental Income", "Rent Income", "Rental Revenue", "Rent Revenue", "Rent",
		"Storage Rent", "Storage Rental Income", "Unit Rent", "Rental Income (1% monthly increase)",
		"Gross Rental Income", "Rent Collected",
	}},
	{model.KeyDiscounts, model.SectionIncome, []string{
		"Discounts", "Discounts Given", "Rent Discounts", "Rental Discounts", "Concessions",
		"Promotional Discounts", "Move In Discounts", "Discounts Given (Accrued per Month)",
	}},
	{model.KeyBadDebt, model.SectionIncome, []string{
		"Bad Debt", "Bad Debts", "Bad Debt/Rental Refunds", "Rental Refunds", "Refunds",
		"Write Offs", "Write-Offs", "Bad Debt Write Off", "Rent Refunds",
	}},
	{model.KeyAdminFees, model.SectionIncome, []string{
		"Administrative Fees", "Admin Fees", "Admin Fee", "Administration Fees", "Setup Fees",
	}},
	{model.KeyLateFees, model.SectionIncome, []string{
		"Late Fees", "Late Fee", "Late Charges", "Lien Fees", "Late & Lien Fees",
	}},
	{model.KeyMerchandiseSales, model.SectionIncome, []string{
		"Merchandise Sales", "Merchandise", "Retail Sales", "Boxes & Supplies", "Supply Sales",
	}},
	{model.KeyTenantInsurance, model.SectionIncome, []string{
		"Tenant Insurance", "Insurance Income", "Tenant Protection", "Protection Plan",
		"Tenant Insurance Income", "Protection Plan Income", "Insurance",
	}},
	{model.KeyTruckRental, model.SectionIncome, []string{
		"Truck Rental Income", "Truck Rental", "Truck Rentals", "Truck Commission",
	}},
	{model.KeyOtherIncome, model.SectionIncome, []string{
		"Other Income", "Miscellaneous Income", "Misc Income", "Other Revenue", "Ancillary Income",
	}},

	{model.KeyPayroll, model.SectionExpense, []string{
		"Payroll & Benefits", "Payroll", "Salaries & Wages", "Wages", "Payroll Expense",
		"Payroll Taxes", "Employee Benefits", "Personnel",
	}},
	{model.KeyPropertyTaxes, model.SectionExpense, []string{
		"Property Taxes", "Property Tax", "Real Estate Taxes", "Real Estate Tax",
	}},
	{model.KeyPropertyInsurance, model.SectionExpense, []string{
		"Property Insurance", "Insurance Expense", "Insurance", "Liability Insurance",
	}},
	{model.KeyUtilities, model.SectionExpense, []string{
		"Utilities", "Electricity", "Electric", "Water & Sewer", "Gas", "Trash Removal",
		"Telephone", "Telephone & Internet", "Utility Expense",
	}},
	{model.KeyRepairs, model.SectionExpense, []string{
		"Repairs & Maintenance", "Repairs and Maintenance", "R&M", "Maintenance", "Repairs",
		"Pest Control", "Cleaning",
	}},
	{model.KeyMarketing, model.SectionExpense, []string{
		"Advertising & Marketing", "Advertising", "Marketing", "Internet Marketing",
		"Yellow Pages", "Promotions",
	}},
	{model.KeyManagementFees, model.SectionExpense, []string{
		"Management Fees", "Management Fee", "Property Management Fees", "Mgmt Fees",
	}},
	{model.KeyOfficeAdmin, model.SectionExpense, []string{
		"Office & Administrative", "Office Supplies", "Office Expense", "Postage",
		"General & Administrative", "G&A", "Administrative Expense",
	}},
	{model.KeyCreditCardFees, model.SectionExpense, []string{
		"Credit Card Fees", "Credit Card Processing", "Merchant Fees", "Bank Fees",
		"Bank & Credit Card Fees",
	}},
	{model.KeySoftware, model.SectionExpense, []string{
		"Software & Technology", "Software", "Computer & Software", "Technology",
	}},
	{model.KeyLandscaping, model.SectionExpense, []string{
		"Landscaping & Snow Removal", "Landscaping", "Snow Removal", "Grounds Maintenance",
	}},
	{model.KeySecurity, model.SectionExpense, []string{
		"Security & Alarm", "Security", "Alarm Monitoring", "Security Systems",
	}},
	{model.KeyCostOfGoods, model.SectionExpense, []string{
		"Cost of Goods Sold", "COGS", "Cost of Sales", "Merchandise Cost",
	}},
	{model.KeyProfessionalFees, model.SectionExpense, []string{
		"Professional Fees", "Legal & Professional", "Legal Fees", "Accounting Fees",
		"Legal & Accounting",
	}},
	{model.KeyOtherExpenses, model.SectionExpense, []string{
		"Other Expenses", "Other Expense", "Miscellaneous Expense", "Misc Expense",
	}},

	{model.KeyTotalOperatingIncome, model.SectionTotal, []string{
		"Total Operating Income", "Total Income", "Total Revenue", "Total Revenues",
	}},
	{model.KeyTotalOperatingExpense, model.SectionTotal, []string{
		"Total Operating Expense", "Total Operating Expenses", "Total Expenses", "Total Expense",
	}},
	{model.KeyNetOperatingIncome, model.SectionTotal, []string{
		"Net Operating Income", "NOI", "Net Income",
	}},
}

var (
	aliasIndex       map[string][]aliasMatch
	destinationIndex map[string][]string
	sectionIndex     map[string]model.Section
	canonicalKeys    []string
)

type aliasMatch struct {
	key     string
	alias   string
	section model.Section
}

func init() {
	idx, err := buildAliasIndex(aliasTable)
	if err != nil {
		panic(err)
	}
	aliasIndex = idx

	destinationIndex = make(map[string][]string, len(aliasTable))
	sectionIndex = make(map[string]model.Section, len(aliasTable))
	canonicalKeys = make([]string, 0, len(aliasTable))
	for _, e := range aliasTable {
		labels := make([]string, 0, len(e.Aliases)+1)
		labels = append(labels, e.Key)
		for _, a := range e.Aliases {
			if a != e.Key {
				labels = append(labels, a)
			}
		}
		destinationIndex[e.Key] = labels
		sectionIndex[e.Key] = e.Section
		canonicalKeys = append(canonicalKeys, e.Key)
	}
}

// buildAliasIndex 同一写法可以分属收入与费用两个区间（如 "Insurance"），
// 但在同一区间内、或与汇总科目之间不得重复
func buildAliasIndex(table []aliasEntry) (map[string][]aliasMatch, error) {
	idx := make(map[string][]aliasMatch)
	for _, e := range table {
		variants := append([]string{e.Key}, e.Aliases...)
		for _, v := range variants {
			n := NormalizeLabel(v)
			dup := false
			for _, prev := range idx[n] {
				if prev.key == e.Key {
					dup = true
					break
				}
				if prev.section == e.Section || prev.section == model.SectionTotal || e.Section == model.SectionTotal {
					return nil, fmt.Errorf("alias %q maps to both %q and %q", v, prev.key, e.Key)
				}
			}
			if !dup {
				idx[n] = append(idx[n], aliasMatch{key: e.Key, alias: v, section: e.Section})
			}
		}
	}
	return idx, nil
}

// CanonicalKeys 规范科目列表（表内顺序）
func CanonicalKeys() []string {
	out := make([]string, len(canonicalKeys))
	copy(out, canonicalKeys)
	return out
}

// KeySection 科目所属区间；非规范科目返回 SectionOther
func KeySection(key string) model.Section {
	if s, ok := sectionIndex[key]; ok {
		return s
	}
	return model.SectionOther
}

// DestinationLabels 反向查询：规范科目在目标模板中可接受的标签（有序）。
// 非规范科目按原文匹配。
func DestinationLabels(key string) []string {
	if labels, ok := destinationIndex[key]; ok {
		out := make([]string, len(labels))
		copy(out, labels)
		return out
	}
	return []string{key}
}

// KeyOrder 规范科目的排序位置；非规范科目排在最后
func KeyOrder(key string) int {
	for i, k := range canonicalKeys {
		if k == key {
			return i
		}
	}
	return len(canonicalKeys)
}
