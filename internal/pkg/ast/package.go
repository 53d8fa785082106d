package ast

type PackageIdentifier string

// Package is the mvir.json descriptor of a source package: a named
// set of .mvir sources plus the packages it pulls in.
type Package struct {
	Name         PackageIdentifier `json:"name"`
	Version      string            `json:"version"`
	MvirVersion  string            `json:"mvir-version"`
	Dependencies []string          `json:"dependencies"`
}

type LoadedPackage struct {
	Url     string
	Dir     string
	Package Package
	Sources []string
}
