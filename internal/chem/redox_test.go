package chem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRedox(t *testing.T) {
	tests := []struct {
		element string
		formula string
		want    bool
	}{
		{"Fe", "Fe+2", true},
		{"Fe", "Fe+3", true},
		{"Fe", "FeOH+", true},
		{"Fe", "Fe(OH)3(s)", true},
		{"Fe", "@Fe+3", true},
		{"Fe", "*Fe+3", true},
		{"Fe", "FE+3", false},
		{"Fe", "FeCl+", false},
		{"Fe", "H2O", false},
		{"Cr", "CrO4-2", true},
		{"P", "H2PO4-", true},
		{"S", "SO4-2", true},
		{"S", "HS-", true},
		{"N", "NH4+", true},
		{"C", "CN-", false},
		{"S", "FeSO4", false},
		{"Si", "SiO2(vit)", true},
		{"Fe", "Fe\u22122", true},
		{"", "Fe+2", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRedox(tt.element, tt.formula), "%s in %s", tt.element, tt.formula)
	}
}
