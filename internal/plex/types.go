// Plex JSON response types, based on the community API documentation at
// https://plexapi.dev/ and observed server responses.
package plex

// container is the top-level JSON document every endpoint returns.
type container struct {
	MediaContainer MediaContainer `json:"MediaContainer"`
}

// MediaContainer is the envelope a Plex server nests every payload in. Which
// fields are populated depends on the endpoint; pagination fills size and
// totalSize, the server root fills the identity fields.
type MediaContainer struct {
	Size              int    `json:"size"`
	TotalSize         int    `json:"totalSize"`
	Offset            int    `json:"offset"`
	MachineIdentifier string `json:"machineIdentifier"`
	FriendlyName      string `json:"friendlyName"`
	Version           string `json:"version"`

	Directory []Section  `json:"Directory"`
	Metadata  []Metadata `json:"Metadata"`
}

// Section is one library section. Music sections have type "artist".
type Section struct {
	Key      string     `json:"key"`
	Title    string     `json:"title"`
	Type     string     `json:"type"`
	Agent    string     `json:"agent"`
	Location []Location `json:"Location"`
}

// LocationPaths returns the directories the section watches.
func (s *Section) LocationPaths() []string {
	paths := make([]string, 0, len(s.Location))
	for _, loc := range s.Location {
		paths = append(paths, loc.Path)
	}
	return paths
}

// Location is one directory a section watches, in the server's namespace.
type Location struct {
	ID   int    `json:"id"`
	Path string `json:"path"`
}

// Metadata is one library item. Plex uses the same shape for tracks, albums,
// playlists, and playlist items; the type field says which one this is.
type Metadata struct {
	RatingKey            string  `json:"ratingKey"`
	Key                  string  `json:"key"`
	ParentRatingKey      string  `json:"parentRatingKey"`
	GrandparentRatingKey string  `json:"grandparentRatingKey"`
	Type                 string  `json:"type"`
	Title                string  `json:"title"`
	ParentTitle          string  `json:"parentTitle"`
	GrandparentTitle     string  `json:"grandparentTitle"`
	Index                int     `json:"index"`
	ParentIndex          int     `json:"parentIndex"`
	UserRating           float64 `json:"userRating"`
	Media                []Media `json:"Media"`

	// Playlist fields.
	PlaylistType   string `json:"playlistType"`
	Smart          bool   `json:"smart"`
	LeafCount      int    `json:"leafCount"`
	PlaylistItemID int    `json:"playlistItemID"`
}

// FilePaths returns every on-disk file backing the item, in the server's
// namespace. Tracks normally have exactly one.
func (m *Metadata) FilePaths() []string {
	var files []string
	for _, media := range m.Media {
		for _, part := range media.Part {
			if part.File != "" {
				files = append(files, part.File)
			}
		}
	}
	return files
}

// Media is one playable version of an item.
type Media struct {
	ID   int    `json:"id"`
	Part []Part `json:"Part"`
}

// Part is one file of a media version.
type Part struct {
	ID   int    `json:"id"`
	Key  string `json:"key"`
	File string `json:"file"`
}
