// Package units provides pressure unit conversions and the barometric
// elevation-to-pressure formula used to calibrate the simulation.
package units

import "math"

// KPaToPSIFactor converts kilopascals to pounds per square inch.
const KPaToPSIFactor = 0.14503773773

// KPaToPSI converts a pressure in kPa to PSI.
func KPaToPSI(kpa float64) float64 {
	return kpa * KPaToPSIFactor
}

// PSIToKPa converts a pressure in PSI to kPa.
func PSIToKPa(psi float64) float64 {
	return psi / KPaToPSIFactor
}

// International barometric formula constants (SI units).
const (
	seaLevelPressureKPa = 101.325  // P0
	lapseRate           = 0.0065   // L, K/m
	seaLevelTempK       = 288.15   // T0
	gravity             = 9.80665  // g, m/s^2
	molarMassAir        = 0.0289644 // M, kg/mol
	gasConstant         = 8.31447  // R, J/(mol*K)
)

// AtmosphericPressureKPa returns the standard atmospheric pressure in kPa at
// the given elevation in meters. Returns 0 when the elevation is high enough
// to make the formula's base non-positive; callers must treat 0 as unusable.
func AtmosphericPressureKPa(elevationM float64) float64 {
	if lapseRate*elevationM >= seaLevelTempK {
		return 0
	}
	base := 1 - lapseRate*elevationM/seaLevelTempK
	exp := gravity * molarMassAir / (gasConstant * lapseRate)
	return seaLevelPressureKPa * math.Pow(base, exp)
}

// AtmosphericPressurePSI is AtmosphericPressureKPa converted to PSI.
func AtmosphericPressurePSI(elevationM float64) float64 {
	return KPaToPSI(AtmosphericPressureKPa(elevationM))
}
