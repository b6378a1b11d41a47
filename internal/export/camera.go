package export

import "strings"

// cameraLevels are the height qualifiers used in "<level>-level angle"
// phrasing.
var cameraLevels = []string{"eye", "hip", "water", "ground", "aerial", "overhead", "underwater"}

// specificAngles are angle phrasings that omit the "-level" qualifier.
var specificAngles = []string{"aerial angle", "overhead angle", "eye angle", "hip angle", "ground angle"}

// HasCameraPattern reports whether a caption mentions a camera angle or
// level, matching either "<level>-level angle" or one of the bare angle
// phrasings. Case-insensitive.
func HasCameraPattern(caption string) bool {
	lower := strings.ToLower(caption)

	for _, level := range cameraLevels {
		if strings.Contains(lower, level+"-level angle") {
			return true
		}
	}
	for _, angle := range specificAngles {
		if strings.Contains(lower, angle) {
			return true
		}
	}
	return false
}
