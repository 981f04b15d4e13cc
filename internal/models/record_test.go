package models

import "testing"

func TestParseRecordType(t *testing.T) {
	tests := []struct {
		in      string
		want    RecordType
		wantErr bool
	}{
		{"income", Income, false},
		{"Income", Income, false},
		{"EXPENSE", Expense, false},
		{"  expense ", Expense, false},
		{"transfer", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRecordType(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRecordType(%q) expected error, got %q", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRecordType(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseRecordType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestApplyDelta(t *testing.T) {
	acct := &Account{TotalIncome: 100, TotalExpense: 40}

	acct.ApplyDelta(Income, 25)
	acct.ApplyDelta(Expense, -15)

	if acct.TotalIncome != 125 {
		t.Errorf("TotalIncome = %v, want 125", acct.TotalIncome)
	}
	if acct.TotalExpense != 25 {
		t.Errorf("TotalExpense = %v, want 25", acct.TotalExpense)
	}
}
