// Package release models the release event a pipeline run is triggered by.
package release

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Event is the information extracted from a release event.
type Event struct {
	Kind        string // event kind, e.g. "release"
	Action      string // event action, e.g. "published"
	Owner       string // repository owner
	Repo        string // repository name
	TagName     string // release tag name
	ReleaseName string // human-readable release name
	CommitSHA   string // commit the release points at
}

// Published reports whether this is a published release event, the only
// trigger that lets a release-triggered pipeline run.
func (e *Event) Published() bool {
	return e.Kind == "release" && (e.Action == "" || e.Action == "published")
}

// Version is the tag with a leading "v" stripped, the form wheel filenames
// carry.
func (e *Event) Version() string {
	return strings.TrimPrefix(e.TagName, "v")
}

// eventPayload mirrors the relevant fields of a forge's release webhook
// payload.
type eventPayload struct {
	Action  string `json:"action"`
	Release struct {
		TagName string `json:"tag_name"`
		Name    string `json:"name"`
	} `json:"release"`
	Repository struct {
		Name     string `json:"name"`
		FullName string `json:"full_name"`
		Owner    struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`
	SHA string `json:"sha"`
}

// ParseFile reads a release event from a webhook-payload JSON file.
func ParseFile(path string) (*Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a webhook-payload JSON document into an Event.
func Parse(data []byte) (*Event, error) {
	var p eventPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode event payload: %w", err)
	}
	if p.Release.TagName == "" {
		return nil, fmt.Errorf("event payload has no release tag")
	}
	return &Event{
		Kind:        "release",
		Action:      p.Action,
		Owner:       p.Repository.Owner.Login,
		Repo:        p.Repository.Name,
		TagName:     p.Release.TagName,
		ReleaseName: p.Release.Name,
		CommitSHA:   p.SHA,
	}, nil
}

// FromEnv builds an Event from RELEASE_* environment variables, the form CI
// wrappers and local runs use when no payload file is at hand.
func FromEnv() *Event {
	tag := os.Getenv("RELEASE_TAG")
	if tag == "" {
		return nil
	}
	return &Event{
		Kind:        "release",
		Action:      os.Getenv("RELEASE_ACTION"),
		Owner:       os.Getenv("RELEASE_OWNER"),
		Repo:        os.Getenv("RELEASE_REPO"),
		TagName:     tag,
		ReleaseName: os.Getenv("RELEASE_NAME"),
		CommitSHA:   os.Getenv("RELEASE_SHA"),
	}
}
