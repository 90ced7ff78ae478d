package evol

// SampleDocuments returns a small built-in document set for demos and
// smoke tests. The content mirrors typical student loan program
// documentation so generated questions read naturally.
func SampleDocuments() []Document {
	return []Document{
		{
			Content: `Federal student loans are available to eligible students through the Direct Loan Program. Subsidized loans do not accrue interest while the borrower is enrolled at least half-time, during the grace period, or during deferment. Unsubsidized loans accrue interest from the date of disbursement. Annual loan limits depend on the student's year in school and dependency status. First-year dependent undergraduates may borrow up to $5,500, of which no more than $3,500 may be subsidized. Students must complete the Free Application for Federal Student Aid (FAFSA) each award year to remain eligible.`,
			Metadata: map[string]any{"source": "sample", "title": "Direct Loan Program Overview"},
		},
		{
			Content: `Repayment of federal student loans begins six months after the borrower graduates, leaves school, or drops below half-time enrollment. Several repayment plans are available. The Standard Repayment Plan spreads fixed payments over ten years. Income-driven repayment plans set the monthly payment as a percentage of discretionary income and extend the term to twenty or twenty-five years, after which any remaining balance may be forgiven. Borrowers experiencing temporary financial hardship may request deferment or forbearance, though interest may continue to accrue during these periods.`,
			Metadata: map[string]any{"source": "sample", "title": "Repayment Plans and Options"},
		},
		{
			Content: `Defaulting on a federal student loan has serious consequences. A Direct Loan enters default after 270 days of missed payments. The entire unpaid balance becomes immediately due, the borrower loses eligibility for additional federal student aid, and the default is reported to national credit bureaus. Wages may be garnished and tax refunds withheld without a court order. Borrowers can resolve a default through loan rehabilitation, which requires nine on-time monthly payments within ten consecutive months, or through loan consolidation combined with enrollment in an income-driven repayment plan.`,
			Metadata: map[string]any{"source": "sample", "title": "Default and Rehabilitation"},
		},
	}
}
