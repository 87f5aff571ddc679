package nextversion

// BuildOutputs are the values handed to a build system once a version is resolved.
type BuildOutputs struct {
	Version       string  `json:"version" yaml:"version"`
	VersionPrefix string  `json:"versionPrefix" yaml:"versionPrefix"`
	VersionSuffix string  `json:"versionSuffix" yaml:"versionSuffix"`
	Outcome       Outcome `json:"outcome" yaml:"outcome"`
	Branch        string  `json:"branch,omitempty" yaml:"branch,omitempty"`
	Stream        string  `json:"stream,omitempty" yaml:"stream,omitempty"`
	ReleaseType   string  `json:"releaseType,omitempty" yaml:"releaseType,omitempty"`
}

// NewBuildOutputs flattens a Result. When no version applies the version and
// prefix fall back to 0.0.0 so downstream builds still get a valid number.
// The prefix drops the prerelease but keeps build metadata.
func NewBuildOutputs(res Result) BuildOutputs {
	out := BuildOutputs{
		Version:       "0.0.0",
		VersionPrefix: "0.0.0",
		Outcome:       res.Outcome,
		Branch:        res.Branch,
	}
	if res.Stream != nil {
		out.Stream = res.Stream.ID
	}
	if res.Outcome == OutcomeResolved {
		out.ReleaseType = res.ReleaseType.String()
	}
	if res.Version != nil {
		out.Version = res.Version.String()
		out.VersionPrefix = res.Version.WithoutPreRelease().String()
		out.VersionSuffix = res.Version.PreRelease
	}
	return out
}
