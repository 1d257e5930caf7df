package core

import (
	"github.com/shopspring/decimal"

	"hr.backoffice/internal/core/model"
)

// moneyPlaces matches the NUMERIC(14,2) money columns.
const moneyPlaces = 2

// NetSalary is base minus deductions, both rounded to cents first so the
// stored net always equals the stored difference.
func NetSalary(base, deductions decimal.Decimal) decimal.Decimal {
	return base.Round(moneyPlaces).Sub(deductions.Round(moneyPlaces))
}

// ComputePayrolls turns one generation run's aggregated inputs into draft rows.
func ComputePayrolls(period model.PayrollPeriod, inputs []model.PayrollInput) []model.Payroll {
	payrolls := make([]model.Payroll, 0, len(inputs))
	for _, in := range inputs {
		payrolls = append(payrolls, model.Payroll{
			PeriodID:        period.ID,
			EmployeeCode:    in.EmployeeCode,
			BaseSalary:      in.BaseSalary.Round(moneyPlaces),
			TotalWorkDays:   in.TotalWorkDays,
			TotalLeaveDays:  in.TotalLeaveDays,
			TotalDeductions: in.TotalDeductions.Round(moneyPlaces),
			NetSalary:       NetSalary(in.BaseSalary, in.TotalDeductions),
			Status:          model.PayrollDraft,
		})
	}
	return payrolls
}
