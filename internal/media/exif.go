package media

import (
	"sort"

	exif "github.com/dsoprea/go-exif/v3"
)

// sensitiveEXIFTags are EXIF tags that can identify where a photo was taken,
// which device took it, or who owns it.
var sensitiveEXIFTags = map[string]bool{
	"GPSLatitude":        true,
	"GPSLongitude":       true,
	"GPSAltitude":        true,
	"SerialNumber":       true,
	"CameraSerialNumber": true,
	"BodySerialNumber":   true,
	"LensSerialNumber":   true,
	"CameraOwnerName":    true,
	"OwnerName":          true,
	"Artist":             true,
	"Copyright":          true,
}

// InspectEXIF returns the names of privacy-sensitive EXIF tags found in an
// image payload, sorted and deduplicated. Payloads without EXIF data, and
// payloads the EXIF parser cannot read, yield nil.
func InspectEXIF(data []byte) (tags []string) {
	// go-exif reports some malformed IFDs by panicking.
	defer func() {
		if recover() != nil {
			tags = nil
		}
	}()

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return nil
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	for _, entry := range entries {
		if sensitiveEXIFTags[entry.TagName] && !seen[entry.TagName] {
			seen[entry.TagName] = true
			tags = append(tags, entry.TagName)
		}
	}
	sort.Strings(tags)
	return tags
}

// HasEXIFSupport reports whether the MIME type can carry EXIF metadata.
func HasEXIFSupport(mimeType string) bool {
	switch baseType(mimeType) {
	case "image/jpeg", "image/tiff", "image/heic", "image/png":
		return true
	default:
		return false
	}
}
