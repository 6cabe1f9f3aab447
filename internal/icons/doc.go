// Package icons maps project file names to icons.
//
// A Provider walks its Models in order and returns the first one whose names,
// extensions or glob patterns match the lower-cased base name of a file. User
// settings can disable individual models; the provider caches the enabled set
// until it receives a refresh request.
package icons
