package imaging

import (
	exif "github.com/dsoprea/go-exif/v3"
)

// gpsTags indicate an embedded location regardless of value. The
// coordinates themselves are not recorded, only their presence.
var gpsTags = map[string]bool{
	"GPSLatitude":     true,
	"GPSLongitude":    true,
	"GPSLatitudeRef":  true,
	"GPSLongitudeRef": true,
}

// keepTags are the metadata tags worth carrying into the report:
// device identity, producing software, authorship, and timestamps.
var keepTags = map[string]bool{
	"Make":               true,
	"Model":              true,
	"Software":           true,
	"ProcessingSoftware": true,
	"Artist":             true,
	"Copyright":          true,
	"DateTimeOriginal":   true,
	"DateTimeDigitized":  true,
	"DateTime":           true,
}

// extractEXIF pulls selected metadata tags out of an image payload.
// GPS coordinates are collapsed into a single "GPS: present" marker.
// The result is nil when the payload has no EXIF segment or none of
// the selected tags; malformed EXIF is treated as absent. Most web
// images carry nothing, so this never fails, it only declines.
func extractEXIF(data []byte) map[string]string {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return nil
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil
	}

	var tags map[string]string
	record := func(key, value string) {
		if tags == nil {
			tags = make(map[string]string)
		}
		if _, ok := tags[key]; !ok {
			tags[key] = value
		}
	}

	for _, entry := range entries {
		switch {
		case gpsTags[entry.TagName]:
			record("GPS", "present")
		case keepTags[entry.TagName]:
			record(entry.TagName, entry.Formatted)
		}
	}

	return tags
}
