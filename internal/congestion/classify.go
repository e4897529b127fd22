package congestion

// levelColors maps each real-time congestion level to its alert hex color.
var levelColors = map[Level]string{
	LevelGreen:  "#4CAF50",
	LevelYellow: "#FFEB3B",
	LevelOrange: "#FF9800",
	LevelRed:    "#F44336",
}

// Classify maps one lane snapshot to its real-time congestion level.
//
// The decision combines the halted-vehicle ratio with the mean-speed ratio
// and raw vehicle density (per lane-length unit), evaluated top-down so the
// first matching rule wins. An empty lane always classifies green.
func Classify(snap LaneSnapshot) Classification {
	vehCount := len(snap.Vehicles)
	if vehCount == 0 {
		return Classification{LaneID: snap.LaneID, Level: LevelGreen, Color: levelColors[LevelGreen]}
	}

	laneLength := snap.LaneLengthMeters
	if laneLength <= 0 {
		laneLength = DefaultLaneLengthMeters
	}
	maxSpeed := snap.MaxSpeedMS * 3.6
	if maxSpeed <= 0 {
		maxSpeed = DefaultMaxSpeedKmh
	}

	density := float64(vehCount) / laneLength
	speedRatio := meanSpeedKmh(snap.Vehicles, maxSpeed) / maxSpeed
	haltingRatio := float64(snap.HaltingCount) / float64(vehCount)

	var level Level
	switch {
	case haltingRatio > 0.5 || (speedRatio < 0.3 && density > 0.2):
		level = LevelRed
	case haltingRatio > 0.3 || (speedRatio < 0.5 && density > 0.15):
		level = LevelOrange
	case haltingRatio > 0.1 || (speedRatio < 0.7 && density > 0.1):
		level = LevelYellow
	default:
		level = LevelGreen
	}

	return Classification{LaneID: snap.LaneID, Level: level, Color: levelColors[level]}
}

// ClassifyBatch classifies every snapshot in the batch.
func ClassifyBatch(snaps []LaneSnapshot) []Classification {
	out := make([]Classification, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, Classify(snap))
	}
	return out
}
