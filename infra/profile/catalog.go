// Package profile ships the built-in vehicle reference catalog.
package profile

import (
	"strings"

	"github.com/chargeq/chargeq/core/model"
)

// catalog lists supported vehicles with pack size and the documented 0-80%
// wall-clock charge time on a 7 kW connection.
var catalog = []model.VehicleProfile{
	{Model: "Model S", Trim: "2016 (60 / 60D)", YearStart: 2016, YearEnd: 2016, BatteryKWh: 60, ChargeTimeH: "8h 54m"},
	{Model: "Model S", Trim: "2016 (75 / 75D)", YearStart: 2016, YearEnd: 2016, BatteryKWh: 72, ChargeTimeH: "10h 42m"},
	{Model: "Model S", Trim: "2016 (90D)", YearStart: 2016, YearEnd: 2016, BatteryKWh: 86, ChargeTimeH: "12h 48m"},
	{Model: "Model S", Trim: "2016-2020 (100D / P100D)", YearStart: 2016, YearEnd: 2020, BatteryKWh: 98, ChargeTimeH: "14h 36m"},
	{Model: "Model S", Trim: "2021-2025 (Long Range)", YearStart: 2021, YearEnd: 2025, BatteryKWh: 100, ChargeTimeH: "14h 54m"},
	{Model: "Model S", Trim: "2021-2025 (Plaid)", YearStart: 2021, YearEnd: 2025, BatteryKWh: 100, ChargeTimeH: "14h 54m"},

	{Model: "Model 3", Trim: "2017-2020 (Std Range / SR+)", YearStart: 2017, YearEnd: 2020, BatteryKWh: 50, ChargeTimeH: "7h 24m"},
	{Model: "Model 3", Trim: "2021-2025 (RWD / Std Range)", YearStart: 2021, YearEnd: 2025, BatteryKWh: 58, ChargeTimeH: "8h 36m"},
	{Model: "Model 3", Trim: "2018-2025 (Long Range)", YearStart: 2018, YearEnd: 2025, BatteryKWh: 79, ChargeTimeH: "11h 48m"},
	{Model: "Model 3", Trim: "2018-2025 (Performance)", YearStart: 2018, YearEnd: 2025, BatteryKWh: 79, ChargeTimeH: "11h 48m"},

	{Model: "Model X", Trim: "2016 (60D)", YearStart: 2016, YearEnd: 2016, BatteryKWh: 60, ChargeTimeH: "8h 54m"},
	{Model: "Model X", Trim: "2016 (75D)", YearStart: 2016, YearEnd: 2016, BatteryKWh: 72, ChargeTimeH: "10h 42m"},
	{Model: "Model X", Trim: "2016 (90D)", YearStart: 2016, YearEnd: 2016, BatteryKWh: 86, ChargeTimeH: "12h 48m"},
	{Model: "Model X", Trim: "2016-2020 (100D / P100D)", YearStart: 2016, YearEnd: 2020, BatteryKWh: 98, ChargeTimeH: "14h 36m"},
	{Model: "Model X", Trim: "2021-2025 (Long Range)", YearStart: 2021, YearEnd: 2025, BatteryKWh: 100, ChargeTimeH: "14h 54m"},
	{Model: "Model X", Trim: "2021-2025 (Plaid)", YearStart: 2021, YearEnd: 2025, BatteryKWh: 100, ChargeTimeH: "14h 54m"},

	{Model: "Model Y", Trim: "2020-2025 (Long Range)", YearStart: 2020, YearEnd: 2025, BatteryKWh: 79, ChargeTimeH: "11h 48m"},
	{Model: "Model Y", Trim: "2020-2025 (Performance)", YearStart: 2020, YearEnd: 2025, BatteryKWh: 79, ChargeTimeH: "11h 48m"},
	{Model: "Model Y", Trim: "2022-2025 (RWD / Std Range)", YearStart: 2022, YearEnd: 2025, BatteryKWh: 58, ChargeTimeH: "8h 36m"},

	{Model: "Cybertruck", Trim: "2024-2025 (AWD)", YearStart: 2024, YearEnd: 2025, BatteryKWh: 123, ChargeTimeH: "18h 18m"},
	{Model: "Cybertruck", Trim: "2024-2025 (Cyberbeast)", YearStart: 2024, YearEnd: 2025, BatteryKWh: 123, ChargeTimeH: "18h 18m"},
}

// Catalog is an in-memory Finder over the built-in vehicle list.
type Catalog struct {
	entries []model.VehicleProfile
}

// NewCatalog returns the built-in catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: catalog}
}

// Models returns the distinct vehicle models in catalog order.
func (c *Catalog) Models() []string {
	var out []string
	seen := map[string]bool{}
	for _, e := range c.entries {
		if !seen[e.Model] {
			seen[e.Model] = true
			out = append(out, e.Model)
		}
	}
	return out
}

// ByModel returns every catalog entry for the given model.
func (c *Catalog) ByModel(vehicleModel string) []model.VehicleProfile {
	var out []model.VehicleProfile
	for _, e := range c.entries {
		if strings.EqualFold(e.Model, vehicleModel) {
			out = append(out, e)
		}
	}
	return out
}

// Find resolves a profile by model, year and trim. The trim match is a
// case-insensitive substring test since client-supplied trims are shorter
// than catalog labels ("Long Range" vs "2021-2025 (Long Range)"). When the
// trim is empty or matches nothing, the first entry covering the year wins.
func (c *Catalog) Find(vehicleModel string, year int, trim string) (model.VehicleProfile, bool) {
	var yearMatch *model.VehicleProfile
	for i := range c.entries {
		e := &c.entries[i]
		if !strings.EqualFold(e.Model, vehicleModel) {
			continue
		}
		if year != 0 && (year < e.YearStart || year > e.YearEnd) {
			continue
		}
		if trim != "" && strings.Contains(strings.ToLower(e.Trim), strings.ToLower(trim)) {
			return *e, true
		}
		if yearMatch == nil {
			yearMatch = e
		}
	}
	if yearMatch != nil {
		return *yearMatch, true
	}
	return model.VehicleProfile{}, false
}
