package config

// EffectParameter describes a known measurable effect with its default unit.
type EffectParameter struct {
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
}

// EffectParameters lists the effect parameters offered for experiment setup.
var EffectParameters = []EffectParameter{
	{Name: "Cycle Life", Unit: "cycles", Category: "Performance"},
	{Name: "Coulombic Efficiency", Unit: "%", Category: "Efficiency"},
	{Name: "Capacity Retention", Unit: "%", Category: "Performance"},
	{Name: "Energy Density", Unit: "Wh/kg", Category: "Energy"},
	{Name: "Power Density", Unit: "W/kg", Category: "Power"},
	{Name: "Specific Capacity", Unit: "mAh/g", Category: "Capacity"},
	{Name: "Voltage Stability", Unit: "V", Category: "Stability"},
	{Name: "Thermal Stability", Unit: "°C", Category: "Safety"},
	{Name: "Ionic Conductivity", Unit: "S/cm", Category: "Transport"},
	{Name: "Viscosity", Unit: "cP", Category: "Physical"},
	{Name: "Impedance", Unit: "Ω", Category: "Electrical"},
	{Name: "SEI Resistance", Unit: "Ω·cm²", Category: "Interface"},
}

// ConcentrationUnits lists the accepted concentration units.
var ConcentrationUnits = []string{
	"M", "mM", "μM", "nM",
	"vol%", "wt%", "mol%",
	"g/L", "mg/mL", "μg/mL",
	"Custom",
}
