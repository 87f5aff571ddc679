package nextversion

import (
	"context"
	"errors"
)

type fakeVersionControl struct {
	branch     string
	tags       []string
	branchTags []string
	headTags   []string
	commits    map[string][]CommitMessage
	changed    map[string][]string
	err        error

	changedSince []string
}

func (f *fakeVersionControl) CurrentBranch(context.Context) (string, error) {
	return f.branch, f.err
}

func (f *fakeVersionControl) Tags(context.Context) ([]string, error) {
	return f.tags, f.err
}

func (f *fakeVersionControl) TagsOnBranch(context.Context, string) ([]string, error) {
	return f.branchTags, f.err
}

func (f *fakeVersionControl) TagsPointingAt(context.Context, string) ([]string, error) {
	return f.headTags, f.err
}

func (f *fakeVersionControl) CommitMessages(_ context.Context, since string) ([]CommitMessage, error) {
	return f.commits[since], f.err
}

func (f *fakeVersionControl) ChangedFiles(_ context.Context, _ string, since string) ([]string, error) {
	f.changedSince = append(f.changedSince, since)
	return f.changed[since], f.err
}

type fakeRegistry struct {
	versions []string
	err      error
}

func (f fakeRegistry) PublishedVersions(context.Context, string, bool) ([]SemanticVersion, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []SemanticVersion
	for _, s := range f.versions {
		out = append(out, MustParse(s))
	}
	return out, nil
}

var errFake = errors.New("boom")

func tagsOf(versions ...string) []string {
	tags := make([]string, len(versions))
	for i, v := range versions {
		tags[i] = "v" + v
	}
	return tags
}
