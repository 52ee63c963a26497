package core

const (
	LineElectroMotors        = "EC"
	LineSteelServiceCenter   = "SSC"
	LineStructuralMechanical = "SMP"
	LineOEM                  = "OEM"
)

var lineOfWorkLabels = map[string]string{
	LineElectroMotors:        "Electro Motors",
	LineSteelServiceCenter:   "Steel Service Center",
	LineStructuralMechanical: "Structural Mechanical & Plate",
	LineOEM:                  "OEM",
	Unknown:                  "Other",
}

// LinesOfWork lists the known line-of-work codes in display order.
func LinesOfWork() []string {
	return []string{LineElectroMotors, LineSteelServiceCenter, LineStructuralMechanical, LineOEM, Unknown}
}

// LineOfWorkLabel returns the display name for a line-of-work code.
// Codes without a display name are returned as-is.
func LineOfWorkLabel(code string) string {
	if l, ok := lineOfWorkLabels[code]; ok {
		return l
	}
	return code
}
