package memtypes

import "encoding/json"

// ProvenanceKind identifies which Provenance variant a value holds.
type ProvenanceKind string

const (
	ProvenanceUserStated         ProvenanceKind = "user_stated"
	ProvenanceWebSearch          ProvenanceKind = "web_search"
	ProvenanceFileContent        ProvenanceKind = "file_content"
	ProvenanceHeartbeatDiscovery ProvenanceKind = "heartbeat_discovery"
	ProvenanceUnknown            ProvenanceKind = "unknown"
)

// Provenance records where a chunk's content came from. It is a tagged
// union: exactly one of the payload fields is meaningful, selected by
// Kind. WebSearch carries a URL and the query that found it;
// FileContent carries the source path; HeartbeatDiscovery carries the
// originating task name.
type Provenance struct {
	Kind  ProvenanceKind
	URL   string
	Query string
	Path  string
	Task  string
}

// UserStated returns a Provenance indicating the user stated the fact directly.
func UserStated() Provenance { return Provenance{Kind: ProvenanceUserStated} }

// WebSearch returns a Provenance indicating the fact was found via web search.
func WebSearch(url, query string) Provenance {
	return Provenance{Kind: ProvenanceWebSearch, URL: url, Query: query}
}

// FileContent returns a Provenance indicating the fact was read from a workspace file.
func FileContent(path string) Provenance {
	return Provenance{Kind: ProvenanceFileContent, Path: path}
}

// HeartbeatDiscovery returns a Provenance indicating the fact was discovered
// during an autonomous heartbeat task.
func HeartbeatDiscovery(task string) Provenance {
	return Provenance{Kind: ProvenanceHeartbeatDiscovery, Task: task}
}

// UnknownProvenance returns the Provenance used for legacy or unparsable data.
func UnknownProvenance() Provenance { return Provenance{Kind: ProvenanceUnknown} }

// String renders the short display form used in logs and stats grouping.
func (p Provenance) String() string {
	switch p.Kind {
	case ProvenanceUserStated:
		return "user-stated"
	case ProvenanceWebSearch:
		return "web-search:" + p.URL
	case ProvenanceFileContent:
		return "file:" + p.Path
	case ProvenanceHeartbeatDiscovery:
		return "heartbeat:" + p.Task
	default:
		return "unknown"
	}
}

// wireTag is the PascalCase variant name used on the wire: "UserStated",
// "WebSearch", "FileContent", "HeartbeatDiscovery", "Unknown".
func (k ProvenanceKind) wireTag() string {
	switch k {
	case ProvenanceUserStated:
		return "UserStated"
	case ProvenanceWebSearch:
		return "WebSearch"
	case ProvenanceFileContent:
		return "FileContent"
	case ProvenanceHeartbeatDiscovery:
		return "HeartbeatDiscovery"
	default:
		return "Unknown"
	}
}

type webSearchFields struct {
	URL   string `json:"url"`
	Query string `json:"query"`
}

type fileContentFields struct {
	Path string `json:"path"`
}

type heartbeatDiscoveryFields struct {
	Task string `json:"task"`
}

// MarshalJSON encodes Provenance in externally-tagged form: a bare string
// for unit variants ("UserStated", "Unknown"), and a single-key object
// wrapping the variant's fields otherwise, e.g.
// {"FileContent":{"path":"notes.md"}}.
func (p Provenance) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case ProvenanceWebSearch:
		return json.Marshal(map[string]webSearchFields{
			p.Kind.wireTag(): {URL: p.URL, Query: p.Query},
		})
	case ProvenanceFileContent:
		return json.Marshal(map[string]fileContentFields{
			p.Kind.wireTag(): {Path: p.Path},
		})
	case ProvenanceHeartbeatDiscovery:
		return json.Marshal(map[string]heartbeatDiscoveryFields{
			p.Kind.wireTag(): {Task: p.Task},
		})
	default:
		return json.Marshal(p.Kind.wireTag())
	}
}

// UnmarshalJSON decodes externally-tagged Provenance JSON in either form a
// bare string or a single-key object keyed by variant name. Any tag it
// does not recognize — a future variant, a hand-edited row, truncated
// data — degrades to UnknownProvenance rather than failing the caller.
func (p *Provenance) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		switch tag {
		case ProvenanceUserStated.wireTag():
			*p = UserStated()
		default:
			*p = UnknownProvenance()
		}
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || len(obj) != 1 {
		*p = UnknownProvenance()
		return nil
	}
	for tag, payload := range obj {
		switch tag {
		case ProvenanceWebSearch.wireTag():
			var f webSearchFields
			if err := json.Unmarshal(payload, &f); err != nil {
				*p = UnknownProvenance()
				return nil
			}
			*p = WebSearch(f.URL, f.Query)
		case ProvenanceFileContent.wireTag():
			var f fileContentFields
			if err := json.Unmarshal(payload, &f); err != nil {
				*p = UnknownProvenance()
				return nil
			}
			*p = FileContent(f.Path)
		case ProvenanceHeartbeatDiscovery.wireTag():
			var f heartbeatDiscoveryFields
			if err := json.Unmarshal(payload, &f); err != nil {
				*p = UnknownProvenance()
				return nil
			}
			*p = HeartbeatDiscovery(f.Task)
		default:
			*p = UnknownProvenance()
		}
	}
	return nil
}
