package service

// PointsPerScan is the award for one accepted scan.
const PointsPerScan = 1

const (
	levelBaseThreshold = 50
	levelThresholdStep = 50
)

// CalculateLevel maps cumulative points to (level, points to next level).
// Level starts at 1 with the next level at 50 points; each level-up moves
// the threshold up by another 50. Pure and deterministic: the same points
// always yield the same result.
func CalculateLevel(points int) (level, pointsToNext int) {
	level = 1
	threshold := levelBaseThreshold
	for points >= threshold {
		level++
		threshold += levelThresholdStep
	}
	return level, threshold - points
}
