package model

// Severity ranks warnings and exceptions.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

type WarningType string

const (
	WarningFragileStacking    WarningType = "FRAGILE_STACKING"
	WarningHazardousProximity WarningType = "HAZARDOUS_PROXIMITY"
)

// Warning flags a placed piece that needs attention. Warnings never make a
// result unsuccessful.
type Warning struct {
	Type     WarningType `json:"type"`
	Message  string      `json:"message"`
	Severity Severity    `json:"severity"`
	PieceIDs []string    `json:"pieceIds"`
}

type ViolationType string

const (
	ViolationWeightExceeded ViolationType = "WEIGHT_EXCEEDED"
	ViolationCollision      ViolationType = "COLLISION"
)

// Violation records a piece that could not be placed.
type Violation struct {
	Type     ViolationType `json:"type"`
	Message  string        `json:"message"`
	PieceIDs []string      `json:"pieceIds"`
}

// PlacementResult is the outcome of one placement run.
type PlacementResult struct {
	Strategy          Algorithm    `json:"strategy"`
	Success           bool         `json:"success"`
	Placed            []PlacedItem `json:"placed"`
	Unplaced          []string     `json:"unplaced"`
	VolumeUtilization float64      `json:"volumeUtilization"` // percent
	WeightUtilization float64      `json:"weightUtilization"` // percent
	Warnings          []Warning    `json:"warnings"`
	Violations        []Violation  `json:"violations"`
	TotalPieces       int          `json:"totalPieces"`

	// Set by the genetic optimizer only.
	Fitness     float64 `json:"fitness,omitempty"`
	Generations int     `json:"generations,omitempty"`
	Cancelled   bool    `json:"cancelled,omitempty"`
}

func (r PlacementResult) PlacedCount() int   { return len(r.Placed) }
func (r PlacementResult) UnplacedCount() int { return len(r.Unplaced) }

// PlacedWeight sums the weight of all placed pieces.
func (r PlacementResult) PlacedWeight() float64 {
	var total float64
	for _, p := range r.Placed {
		total += p.Weight
	}
	return total
}

// PlacedVolume sums the volume of all placed pieces.
func (r PlacementResult) PlacedVolume() float64 {
	var total float64
	for _, p := range r.Placed {
		total += p.Volume()
	}
	return total
}

// CubeUtilization is the binding utilization: whichever of weight or volume
// is closer to the container limit.
func (r PlacementResult) CubeUtilization() float64 {
	return max(r.VolumeUtilization, r.WeightUtilization)
}

// PlacedPiece is the external representation of a placed piece.
type PlacedPiece struct {
	PieceID      string      `json:"pieceId"`
	SKU          string      `json:"sku"`
	X            float64     `json:"x"`
	Y            float64     `json:"y"`
	Z            float64     `json:"z"`
	Orientation  Orientation `json:"orientation"`
	Layer        int         `json:"layer"`
	StopSequence int         `json:"stopSequence"`
}

// Response is the external shape of a placement result.
type Response struct {
	Success           bool          `json:"success"`
	WeightUtilization float64       `json:"weightUtilization"`
	VolumeUtilization float64       `json:"volumeUtilization"`
	PlacedPieces      []PlacedPiece `json:"placedPieces"`
	Warnings          []Warning     `json:"warnings"`
	Violations        []Violation   `json:"violations"`
	TotalPieces       int           `json:"totalPieces"`
	PlacedCount       int           `json:"placedCount"`
	UnplacedCount     int           `json:"unplacedCount"`
}

// Response converts the result to its external shape. Nil slices become
// empty arrays so consumers always see lists.
func (r PlacementResult) Response() Response {
	pieces := make([]PlacedPiece, 0, len(r.Placed))
	for _, p := range r.Placed {
		pieces = append(pieces, PlacedPiece{
			PieceID:      p.PieceID,
			SKU:          p.SKU,
			X:            p.X,
			Y:            p.Y,
			Z:            p.Z,
			Orientation:  p.Orientation,
			Layer:        p.Layer,
			StopSequence: p.StopSequence,
		})
	}
	warnings := r.Warnings
	if warnings == nil {
		warnings = []Warning{}
	}
	violations := r.Violations
	if violations == nil {
		violations = []Violation{}
	}
	return Response{
		Success:           r.Success,
		WeightUtilization: r.WeightUtilization,
		VolumeUtilization: r.VolumeUtilization,
		PlacedPieces:      pieces,
		Warnings:          warnings,
		Violations:        violations,
		TotalPieces:       r.TotalPieces,
		PlacedCount:       r.PlacedCount(),
		UnplacedCount:     r.UnplacedCount(),
	}
}

// AxleLoad is the computed load on one axle.
type AxleLoad struct {
	Name    string  `json:"name"`
	Load    float64 `json:"load"`
	Limit   float64 `json:"limit"`
	Percent float64 `json:"percent"`
}

// Overloaded reports whether the axle carries more than its capacity.
func (a AxleLoad) Overloaded() bool { return a.Percent > 100 }

// LoadMetrics are the physical load properties derived from a placement.
type LoadMetrics struct {
	TotalWeight     float64    `json:"totalWeight"`
	GrossWeight     float64    `json:"grossWeight"` // tare + cargo
	CenterOfGravity Vec3       `json:"centerOfGravity"`
	AxleLoads       []AxleLoad `json:"axleLoads"`
	LoadLength      float64    `json:"loadLength"` // furthest occupied x
	StabilityScore  float64    `json:"stabilityScore"`
	Policy          AxlePolicy `json:"policy"`
}

// MaxAxlePercent returns the highest axle utilization, 0 without axles.
func (m LoadMetrics) MaxAxlePercent() float64 {
	var worst float64
	for _, a := range m.AxleLoads {
		worst = max(worst, a.Percent)
	}
	return worst
}
