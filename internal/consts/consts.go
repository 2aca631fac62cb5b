package consts

const (
	MaxBuses             = 255   // Largest supported bus count
	DefaultMaxIterations = 50    // Newton-Raphson iteration cap
	DefaultTolerance     = 1e-10 // Max |dx| accepted as converged
	DeltaEquivalent      = 3.0   // Delta bank line-to-line to wye-equivalent factor
	FlatMagnitude        = 1.0   // Flat start magnitude (pu)
)
