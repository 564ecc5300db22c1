package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalSaintName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"San Francisco de Asís", "San Francisco de Asís"},
		{"Francisco de Asís", "San Francisco de Asís"},
		{"Teresa de Ávila", "Santa Teresa de Ávila"},
		{"María Goretti", "Santa María Goretti"},
		{"José María Rubio", "San José María Rubio"},
		{"Tomás de Aquino", "Santo Tomás de Aquino"},
		{"Domingo de Guzmán", "Santo Domingo de Guzmán"},
		{"Cosme y Damián", "Santos Cosme y Damián"},
		{"Juan Pablo I, venerable", "Beato Juan Pablo I, venerable"},
		{"Nuestra Señora del Rosario", "Nuestra Señora del Rosario"},
		{"Inmaculada Concepción", "Inmaculada Concepción"},
		{"SanJuan Bosco", "San Juan Bosco"},
		{"Beato San Carlo Acutis", "Beato Carlo Acutis"},
		{"Lucas Evangelista (siglo I)", "San Lucas Evangelista"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalSaintName(tt.in))
		})
	}
}
