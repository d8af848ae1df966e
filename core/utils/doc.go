// Package utils provides conversion helpers for loosely typed JSON values returned
// by external services, such as the continuation flag and library keys of the
// availability API.
package utils
