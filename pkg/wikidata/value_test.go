package wikidata

import "testing"

func TestFormatTime(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		precision int
		want      string
	}{
		{
			name:      "full date",
			value:     "+1969-07-20T00:00:00Z",
			precision: PrecisionDay,
			want:      "20 July 1969",
		},
		{
			name:      "year month",
			value:     "+1969-07-20T00:00:00Z",
			precision: PrecisionMonth,
			want:      "July 1969",
		},
		{
			name:      "year only",
			value:     "+1969-07-20T00:00:00Z",
			precision: PrecisionYear,
			want:      "1969",
		},
		{
			name:      "bce year",
			value:     "-0044-03-15T00:00:00Z",
			precision: PrecisionYear,
			want:      "44 BCE",
		},
		{
			name:      "bce full date",
			value:     "-0044-03-15T00:00:00Z",
			precision: PrecisionDay,
			want:      "15 March 44 BCE",
		},
		{
			name:      "coarser than year renders year",
			value:     "+1800-01-01T00:00:00Z",
			precision: 7,
			want:      "1800",
		},
		{
			name:      "garbage preserved verbatim",
			value:     "not-a-time",
			precision: PrecisionDay,
			want:      "not-a-time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatTime(tt.value, tt.precision)
			if got != tt.want {
				t.Fatalf("unexpected formatted time: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatQuantity(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{name: "grouped integer", amount: "+1234567", want: "1,234,567"},
		{name: "decimal", amount: "+123456.5", want: "123,456.5"},
		{name: "negative", amount: "-42", want: "-42"},
		{name: "garbage preserved", amount: "12,3oo", want: "12,3oo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatQuantity(tt.amount)
			if got != tt.want {
				t.Fatalf("unexpected formatted quantity: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatCoordinate(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     string
	}{
		{name: "north east", lat: 48.8566, lon: 2.3522, want: "48.8566N, 2.3522E"},
		{name: "south west", lat: -33.8688, lon: -70.6693, want: "33.8688S, 70.6693W"},
		{name: "rounding", lat: 51.50735, lon: -0.12776, want: "51.5074N, 0.1278W"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatCoordinate(tt.lat, tt.lon)
			if got != tt.want {
				t.Fatalf("unexpected formatted coordinate: got %q, want %q", got, tt.want)
			}
		})
	}
}
