// Package profile resolves vehicle reference data for the charging-rate
// model.
package profile

import "github.com/chargeq/chargeq/core/model"

// Finder looks up a vehicle profile by model, year and trim. An unknown
// combination returns ok=false rather than an error; the estimator then
// falls back to its default curve.
type Finder interface {
	Find(vehicleModel string, year int, trim string) (model.VehicleProfile, bool)
}

// FinderFunc adapts a function to the Finder interface.
type FinderFunc func(vehicleModel string, year int, trim string) (model.VehicleProfile, bool)

func (f FinderFunc) Find(m string, y int, t string) (model.VehicleProfile, bool) { return f(m, y, t) }

// NoneFinder never resolves a profile.
type NoneFinder struct{}

func (NoneFinder) Find(string, int, string) (model.VehicleProfile, bool) {
	return model.VehicleProfile{}, false
}
