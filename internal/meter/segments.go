package meter

// Segment counts for the two supported meter layouts.
const (
	HorizontalSegments = 20
	VerticalSegments   = 16
)

// Color tier thresholds, in level units.
const (
	greenCeiling  = 35.0
	yellowCeiling = 75.0
)

// Tier is the color band a segment belongs to.
type Tier string

const (
	TierGreen  Tier = "green"
	TierYellow Tier = "yellow"
	TierRed    Tier = "red"
)

// Segment is a single rendering decision for one meter cell. Lit/dim color
// variants are a client concern; the server reports tier and flags only.
type Segment struct {
	Index     int     `json:"index"`
	Threshold float64 `json:"threshold"`
	Lit       bool    `json:"lit"`
	Peak      bool    `json:"peak"`
	Tier      Tier    `json:"tier"`
}

// BuildSegments maps a level and peak-hold value onto count discrete
// segments. Segment i covers the band ((i)/count*100, (i+1)/count*100]; it is
// lit when the level reaches its threshold and flagged as the peak indicator
// when the peak-hold value falls within its band.
func BuildSegments(level, peak float64, count int) []Segment {
	if count <= 0 {
		count = HorizontalSegments
	}
	level = clamp(level)
	peak = clamp(peak)
	width := maxLevel / float64(count)

	segments := make([]Segment, count)
	for i := range segments {
		threshold := float64(i+1) / float64(count) * maxLevel
		segments[i] = Segment{
			Index:     i,
			Threshold: threshold,
			Lit:       level >= threshold,
			Peak:      peak > 0 && peak > threshold-width && peak <= threshold,
			Tier:      tierFor(threshold),
		}
	}
	return segments
}

func tierFor(threshold float64) Tier {
	switch {
	case threshold <= greenCeiling:
		return TierGreen
	case threshold <= yellowCeiling:
		return TierYellow
	default:
		return TierRed
	}
}
