package congestion

import "fmt"

// serviceLevelColors maps each service level to its map-coloring hex code.
var serviceLevelColors = map[ServiceLevel]string{
	ServiceLevelA: "#34A853",
	ServiceLevelB: "#A3C644",
	ServiceLevelC: "#F4C20D",
	ServiceLevelD: "#FB8C00",
	ServiceLevelE: "#EA4335",
	ServiceLevelF: "#B71C1C",
}

// Evaluate computes the batch-analytics metrics for one lane snapshot.
// Derived values are computed on read and never stored on the snapshot.
func Evaluate(snap LaneSnapshot) LaneMetrics {
	lengthKm := snap.LaneLengthMeters / 1000
	maxSpeedKmh := snap.MaxSpeedMS * 3.6
	vehCount := len(snap.Vehicles)

	meanSpeed := meanSpeedKmh(snap.Vehicles, maxSpeedKmh)
	density := 0.0
	if lengthKm > 0 {
		density = float64(vehCount) / lengthKm
	}
	level := ServiceLevelForDensity(density)

	return LaneMetrics{
		LaneID:            snap.LaneID,
		MeanSpeedKmh:      meanSpeed,
		DensityVehPerKm:   density,
		TrafficFlow:       density * meanSpeed,
		TravelTimeMinutes: travelTimeMinutes(lengthKm, meanSpeed, maxSpeedKmh),
		OccupancyRate:     occupancyRate(snap.Vehicles, lengthKm),
		ServiceLevel:      level,
		AlertMessage:      alertMessage(level, snap.LaneID),
		ColorCode:         serviceLevelColors[level],
		Timestamp:         snap.Timestamp,
		Shape:             snap.Shape,
		VehicleCount:      vehCount,
		HaltingCount:      snap.HaltingCount,
		MaxSpeedKmh:       maxSpeedKmh,
	}
}

// EvaluateBatch evaluates every snapshot in the batch.
func EvaluateBatch(snaps []LaneSnapshot) []LaneMetrics {
	metrics := make([]LaneMetrics, 0, len(snaps))
	for _, snap := range snaps {
		metrics = append(metrics, Evaluate(snap))
	}
	return metrics
}

// ServiceLevelForDensity maps vehicles-per-km density to a service level.
// Bands are half-open: a density exactly on a boundary maps to the higher band.
func ServiceLevelForDensity(density float64) ServiceLevel {
	switch {
	case density < 11:
		return ServiceLevelA
	case density < 18:
		return ServiceLevelB
	case density < 26:
		return ServiceLevelC
	case density < 35:
		return ServiceLevelD
	case density < 45:
		return ServiceLevelE
	default:
		return ServiceLevelF
	}
}

// meanSpeedKmh averages per-vehicle speeds converted from m/s to km/h,
// falling back to the speed limit when the lane is empty.
func meanSpeedKmh(vehicles []Vehicle, maxSpeedKmh float64) float64 {
	if len(vehicles) == 0 {
		return maxSpeedKmh
	}

	total := 0.0
	for _, veh := range vehicles {
		total += veh.SpeedMS
	}
	return total * 3.6 / float64(len(vehicles))
}

func travelTimeMinutes(lengthKm, meanSpeedKmh, maxSpeedKmh float64) float64 {
	speed := meanSpeedKmh
	if speed <= 0 {
		speed = maxSpeedKmh
	}
	if speed <= 0 {
		return 0
	}
	return lengthKm / speed * 60
}

func occupancyRate(vehicles []Vehicle, lengthKm float64) float64 {
	if len(vehicles) == 0 || lengthKm <= 0 {
		return 0
	}

	totalLength := 0.0
	for _, veh := range vehicles {
		totalLength += veh.Length + veh.MinGap
	}
	return float64(len(vehicles)) * (totalLength / 1000) / lengthKm
}

func alertMessage(level ServiceLevel, laneID string) string {
	switch level {
	case ServiceLevelA:
		return fmt.Sprintf("Free-flowing traffic on lane %s.", laneID)
	case ServiceLevelB:
		return fmt.Sprintf("Stable traffic on lane %s, no major slowdowns.", laneID)
	case ServiceLevelC:
		return fmt.Sprintf("Moderate traffic on lane %s, stay alert.", laneID)
	case ServiceLevelD:
		return fmt.Sprintf("Dense traffic on lane %s, slowdowns possible.", laneID)
	case ServiceLevelE:
		return fmt.Sprintf("Lane %s is near saturation, consider an alternative route.", laneID)
	case ServiceLevelF:
		return fmt.Sprintf("Lane %s is saturated, avoid this area if possible.", laneID)
	default:
		return fmt.Sprintf("No traffic data available for lane %s.", laneID)
	}
}
