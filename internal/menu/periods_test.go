package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderPeriods(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   []string
	}{
		{"dom order", []string{"Dinner", "Breakfast", "Lunch"}, []string{"Breakfast", "Lunch", "Dinner"}},
		{"duplicates", []string{"Lunch", " Lunch ", "Breakfast", "Lunch"}, []string{"Breakfast", "Lunch"}},
		{"unknown last in relative order", []string{"Late Night", "Dinner", "Brunch", "Breakfast"}, []string{"Breakfast", "Dinner", "Late Night", "Brunch"}},
		{"blank dropped", []string{"", "Dinner", "  "}, []string{"Dinner"}},
		{"empty", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OrderPeriods(tt.labels, DefaultPeriods))
		})
	}
}
