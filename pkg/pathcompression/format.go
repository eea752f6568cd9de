package pathcompression

import (
	"encoding/json"
	"fmt"

	"github.com/paulschiretz/pgl-modpack/pkg/util"
)

// Format represents the container written for the output bundle.
type Format string

const (
	// Zstd is a tar stream compressed with zstd.
	Zstd Format = "zstd"
	// Zip is a zip archive with deflate entries.
	Zip Format = "zip"
)

var formatToString = map[Format]string{
	Zstd: "zstd",
	Zip:  "zip",
}

var formatToExtension = map[Format]string{
	Zstd: "tzst",
	Zip:  "zip",
}

var stringToFormat map[string]Format

func init() {
	// Inverting the map at runtime ensures formatToString is fully loaded
	stringToFormat = util.InvertMap(formatToString)
}

func (f Format) String() string {
	if str, ok := formatToString[f]; ok {
		return str
	}
	return fmt.Sprintf("unknown_compression_format(%s)", string(f))
}

// Extension returns the file extension, without the dot, used for outputs.
func (f Format) Extension() string {
	return formatToExtension[f]
}

func ParseFormat(s string) (Format, error) {
	if format, ok := stringToFormat[s]; ok {
		return format, nil
	}
	return "", fmt.Errorf("invalid compression format: %q. Must be 'zstd' or 'zip'", s)
}

// MarshalJSON implements the json.Marshaler interface for Format.
func (cf Format) MarshalJSON() ([]byte, error) {
	return json.Marshal(cf.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for Format.
func (cf *Format) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("compression format should be a string, got %s", data)
	}
	format, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*cf = format
	return nil
}
