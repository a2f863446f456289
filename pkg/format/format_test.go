package format

import "testing"

func TestBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}
	for _, tt := range tests {
		if got := Bytes(tt.in); got != tt.want {
			t.Errorf("Bytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNumber(t *testing.T) {
	if got := Number(1234567); got != "1,234,567" {
		t.Errorf("Number(1234567) = %q", got)
	}
	if got := Number(42); got != "42" {
		t.Errorf("Number(42) = %q", got)
	}
}

func TestPercentage(t *testing.T) {
	if got := Percentage(45.678, 1); got != "45.7%" {
		t.Errorf("Percentage(45.678, 1) = %q", got)
	}
}

func TestCronDescription(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"* * * * *", "Every minute"},
		{"*/15 * * * *", "Every 15 minutes"},
		{"0 * * * *", "Every hour"},
		{"30 * * * *", "Every hour at :30"},
		{"0 */6 * * *", "Every 6 hours"},
		{"0 3 * * *", "Daily at 3AM"},
		{"15 14 * * *", "Daily at 2:15PM"},
		{"0 0 * * *", "Daily at midnight"},
		{"0 12 * * 1", "Mondays at noon"},
		{"0 2 1 * *", "1st of each month at 2AM"},
		{"bogus", "bogus"},
	}
	for _, tt := range tests {
		if got := CronDescription(tt.expr); got != tt.want {
			t.Errorf("CronDescription(%q) = %q, want %q", tt.expr, got, tt.want)
		}
	}
}
