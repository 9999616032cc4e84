package money

// Entry is one signed movement: income adds to the balance, expense subtracts.
type Entry struct {
	Amount Amount
	Income bool
}

// Summary is the income, expense and balance shown on the dashboard.
type Summary struct {
	Income  Amount
	Expense Amount
	Balance Amount
}

func Sum(entries []Entry) Summary {
	var s Summary
	for _, e := range entries {
		if e.Income {
			s.Income = s.Income.Add(e.Amount)
		} else {
			s.Expense = s.Expense.Add(e.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expense)
	return s
}
