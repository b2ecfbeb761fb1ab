package chart

// Wrap maps any integer onto [0, ZoneCount).
func Wrap(z int) int {
	z %= ZoneCount
	if z < 0 {
		z += ZoneCount
	}
	return z
}

// Opposite returns the diametrically opposite zone.
func Opposite(z int) int {
	return Wrap(z + ZoneCount/2)
}

// Step returns the signed circular step from a to b, wrapped into [-2, 3].
func Step(a, b int) int {
	d := Wrap(b - a)
	if d > ZoneCount/2 {
		d -= ZoneCount
	}
	return d
}

// Distance returns the circular distance between two zones (0..3).
func Distance(a, b int) int {
	d := Step(a, b)
	if d < 0 {
		return -d
	}
	return d
}

// Valid reports whether z is a legal zone index.
func Valid(z int) bool {
	return z >= 0 && z < ZoneCount
}

// MaxTimeMs bounds note times; nothing longer than a day is a track.
const MaxTimeMs = 24 * 60 * 60 * 1000.0

// ValidTime reports whether t is a finite time within [0, MaxTimeMs].
func ValidTime(t float64) bool {
	return t >= 0 && t <= MaxTimeMs
}
