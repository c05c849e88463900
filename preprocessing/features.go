package preprocessing

import (
	"github.com/YuminosukeSato/housing"
	"github.com/YuminosukeSato/housing/dataset"
)

// Derived ratio columns.
const (
	ColRoomsPerHousehold      = "rooms_per_household"
	ColBedroomsPerRoom        = "bedrooms_per_room"
	ColPopulationPerHousehold = "population_per_household"
)

// FeatureOptions controls which derived columns GenerateFeatures appends.
type FeatureOptions struct {
	// AddBedroomsPerRoom appends total_bedrooms / total_rooms.
	AddBedroomsPerRoom bool
}

// DefaultFeatureOptions appends all three ratios.
func DefaultFeatureOptions() FeatureOptions {
	return FeatureOptions{AddBedroomsPerRoom: true}
}

// Names returns the derived column names in the order they are appended.
func (o FeatureOptions) Names() []string {
	if o.AddBedroomsPerRoom {
		return []string{ColRoomsPerHousehold, ColBedroomsPerRoom, ColPopulationPerHousehold}
	}
	return []string{ColRoomsPerHousehold, ColPopulationPerHousehold}
}

// GenerateFeatures appends the per-household and per-room ratios to f.
//
// Division follows IEEE-754: a zero denominator yields ±Inf or NaN in the
// derived column rather than an error. Existing columns of the same name
// are replaced in place.
func GenerateFeatures(f *dataset.Frame, opts FeatureOptions) (*dataset.Frame, error) {
	rooms, err := f.Numeric(housing.ColTotalRooms)
	if err != nil {
		return nil, err
	}
	bedrooms, err := f.Numeric(housing.ColTotalBedrooms)
	if err != nil {
		return nil, err
	}
	population, err := f.Numeric(housing.ColPopulation)
	if err != nil {
		return nil, err
	}
	households, err := f.Numeric(housing.ColHouseholds)
	if err != nil {
		return nil, err
	}

	out, err := f.With(dataset.NewNumeric(ColRoomsPerHousehold, ratio(rooms, households)))
	if err != nil {
		return nil, err
	}
	if opts.AddBedroomsPerRoom {
		if out, err = out.With(dataset.NewNumeric(ColBedroomsPerRoom, ratio(bedrooms, rooms))); err != nil {
			return nil, err
		}
	}
	return out.With(dataset.NewNumeric(ColPopulationPerHousehold, ratio(population, households)))
}

func ratio(num, den []float64) []float64 {
	out := make([]float64, len(num))
	for i := range num {
		out[i] = num[i] / den[i]
	}
	return out
}
