package schemas

import (
	_ "embed"
)

// PackageSchema is the JSON Schema for the package.json metadata record
// written into every checkpoint package directory.
//
//go:embed package.schema.json
var PackageSchema string

// ValidatePackageMetadata validates a serialized package metadata record
// against the embedded schema. Returns *ValidationError on schema violations.
func ValidatePackageMetadata(jsonContent []byte) error {
	return ValidateJSONString(PackageSchema, string(jsonContent))
}
