package version

// Dependency is a package requirement declared by another package: an
// identifier (the version is usually a range expression) grouped under an
// optional target framework. The discovery core carries dependencies through
// opaquely; resolution happens elsewhere.
type Dependency struct {
	Identifier
	TargetFramework string
}
